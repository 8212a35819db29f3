// Command hazard-route answers hazard-aware routing and nearest-facility
// queries. Query subcommands print exactly one JSON document to stdout and
// exit 1 on failure; serve runs the long-lived Kafka worker.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

// exitCode is returned by a subcommand that already wrote its error
// document and only needs the process status set.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hazard-route",
		Short: "Hazard-aware shortest paths and nearest emergency facilities",
		Long: `hazard-route finds least-cost road paths that avoid reported hazards and
locates the nearest emergency facility to a point. Every query prints one
JSON document; failures are reported as {"status":"error",...} documents.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// Explicit Args keeps cobra from rejecting unknown subcommands
		// before RunE can write the error document.
		Args: cobra.ArbitraryArgs,
		RunE: unknownOperation,
	}

	root.AddCommand(
		newRouteCmd(),
		newNearestCmd(),
		newDynamicNearestCmd(),
		newServeCmd(),
	)
	return root
}

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		var code exitCode
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
