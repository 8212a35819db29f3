package geograph

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Holder publishes the current graph to concurrent readers. A reload builds a
// new graph and swaps the pointer; requests already holding the old graph
// finish against it.
type Holder struct {
	current atomic.Pointer[Graph]
}

// NewHolder returns a Holder publishing g.
func NewHolder(g *Graph) *Holder {
	h := &Holder{}
	h.current.Store(g)
	return h
}

// Graph returns the currently published graph.
func (h *Holder) Graph() *Graph {
	return h.current.Load()
}

// Swap publishes g and returns the previous graph.
func (h *Holder) Swap(g *Graph) *Graph {
	return h.current.Swap(g)
}

// CheckReadiness returns nil once a graph is published.
func (h *Holder) CheckReadiness(_ context.Context) error {
	if h.current.Load() == nil {
		return errors.New("graph not loaded")
	}
	return nil
}

// Watch monitors path and calls onChange with a freshly loaded graph each
// time the file is written or replaced. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file, so a save that
// renames a temporary file over path is seen and later writes still are.
//
// If a reload fails (e.g. an edge references an undefined node) the error is
// logged, passed to onError when it is non-nil, and onChange is not called, so
// the previous graph stays active.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Graph), onError func(error)) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger.Info("watching graph definition", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			// A rename over path arrives as Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			g, err := LoadFile(path)
			if err != nil {
				logger.Error("graph reload failed, keeping previous graph", "path", path, "error", err)
				if onError != nil {
					onError(err)
				}
				continue
			}

			stats := g.Stats()
			logger.Info("graph reloaded",
				"path", path,
				"version", g.Version(),
				"nodes", stats.Nodes,
				"edges", stats.Edges,
				"facilities", stats.Facilities,
			)
			onChange(g)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("graph watcher error", "error", err)
		}
	}
}
