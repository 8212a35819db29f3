package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/hazard-route-engine/internal/config"
	"github.com/couchcryptid/hazard-route-engine/internal/dispatch"
	"github.com/couchcryptid/hazard-route-engine/internal/domain"
	"github.com/couchcryptid/hazard-route-engine/internal/geograph"
	"github.com/couchcryptid/hazard-route-engine/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <start> <end> [hazards]",
		Short: "Least-cost path between two nodes",
		Long: `Compute the least-cost path from start to end. Hazards are encoded as
"id|lat|lon|severity[|type]" records separated by ";".`,
		Example: `  hazard-route route 1 4
  hazard-route route 1 4 "h1|33.7077|73.0501|10|flood"`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE:               queryRunE(dispatch.OpRoute),
	}
}

func newNearestCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "nearest <lat> <lon>",
		Short:   "Nearest static facility to a point",
		Example:            `  hazard-route nearest 33.7077 73.0501`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE:               queryRunE(dispatch.OpNearest),
	}
}

func newDynamicNearestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dynamic_nearest <lat> <lon> <candidates>",
		Short: "Nearest of a caller-supplied candidate list",
		Long: `Pick the candidate closest to a point. Candidates are encoded as
"name|lat|lon" records separated by ";".`,
		Example:            `  hazard-route dynamic_nearest 0 0 "X|0|0;Y|1|1"`,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE:               queryRunE(dispatch.OpDynamicNearest),
	}
}

// queryRunE argument validation happens in dispatch.ParseArgs so that a bad
// argument count still yields a malformed_input document. Flag parsing is
// disabled on query commands: "-74.0" is a longitude, not a shorthand flag.
func queryRunE(op dispatch.Operation) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return respond(cmd, runQuery(cmd.Context(), op, args))
	}
}

// unknownOperation answers a bare invocation or an unrecognized operation
// name with a malformed_input document.
func unknownOperation(cmd *cobra.Command, args []string) error {
	err := fmt.Errorf("%w: no operation given (want route, nearest, dynamic_nearest or serve)", domain.ErrMalformedInput)
	if len(args) > 0 {
		err = fmt.Errorf("%w: unknown operation %q", domain.ErrMalformedInput, args[0])
	}
	return respond(cmd, dispatch.ErrorResponse("", err))
}

func respond(cmd *cobra.Command, resp dispatch.Response) error {
	if err := writeDocument(cmd.OutOrStdout(), resp); err != nil {
		return err
	}
	if code := resp.ExitCode(); code != 0 {
		return exitCode(code)
	}
	return nil
}

// runQuery serves a single request against a freshly loaded graph. Every
// failure, including configuration and graph load errors, becomes an error
// document.
func runQuery(ctx context.Context, op dispatch.Operation, args []string) dispatch.Response {
	cfg, err := config.Load()
	if err != nil {
		return dispatch.ErrorResponse(op, fmt.Errorf("%w: %w", domain.ErrMalformedInput, err))
	}
	logger := observability.NewLogger(observability.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	g, err := loadGraph(cfg)
	if err != nil {
		logger.Error("graph load failed", "graph_file", cfg.GraphFile, "error", err)
		return dispatch.ErrorResponse(op, err)
	}

	req, err := dispatch.ParseArgs(string(op), args)
	if err != nil {
		return dispatch.ErrorResponse(op, err)
	}

	// One-shot processes keep metrics off the default registry.
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	engine := dispatch.NewEngine(geograph.NewHolder(g), cfg.HazardModel(), cfg.RequestTimeout, logger, metrics)
	if ctx == nil {
		ctx = context.Background()
	}
	return engine.Handle(ctx, req)
}

// loadGraph reads GRAPH_FILE, or the embedded dataset when it is unset.
func loadGraph(cfg *config.Config) (*geograph.Graph, error) {
	if cfg.GraphFile == "" {
		return geograph.Default()
	}
	return geograph.LoadFile(cfg.GraphFile)
}

func writeDocument(w io.Writer, resp dispatch.Response) error {
	enc := json.NewEncoder(w)
	return enc.Encode(resp)
}
