package dataset

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

// ErrFetch wraps every failure of a Loader.
var ErrFetch = errors.New("fetching dataset")

// Source produces a tree.
type Source func(ctx context.Context) (*hierarchy.Node, error)

// FileSource parses the tree JSON at path.
func FileSource(path string) Source {
	return func(ctx context.Context) (*hierarchy.Node, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return hierarchy.Parse(data)
	}
}

// Loader fetches a tree once. Ready callbacks run exactly once after a
// successful fetch and never after a failure. There is no retry: later
// calls to Fetch return the first outcome.
type Loader struct {
	name   string
	source Source

	mu    sync.Mutex
	done  bool
	root  *hierarchy.Node
	err   error
	ready []func(*hierarchy.Node)
}

// NewLoader creates a loader for the named chart.
func NewLoader(name string, source Source) *Loader {
	return &Loader{name: name, source: source}
}

// OnReady registers fn. If the tree is already loaded fn runs immediately.
func (l *Loader) OnReady(fn func(*hierarchy.Node)) {
	l.mu.Lock()
	if !l.done {
		l.ready = append(l.ready, fn)
		l.mu.Unlock()
		return
	}
	root, err := l.root, l.err
	l.mu.Unlock()
	if err == nil {
		fn(root)
	}
}

// Fetch loads the tree on first call and notifies ready callbacks.
func (l *Loader) Fetch(ctx context.Context) (*hierarchy.Node, error) {
	l.mu.Lock()
	if l.done {
		defer l.mu.Unlock()
		return l.root, l.err
	}

	root, err := l.source(ctx)
	if err != nil {
		log.Printf("dataset: loading %s failed: %v", l.name, err)
		l.err = fmt.Errorf("%w %s: %w", ErrFetch, l.name, err)
		root = nil
	}
	l.root = root
	l.done = true
	ready := l.ready
	l.ready = nil
	fail := l.err
	l.mu.Unlock()

	if fail != nil {
		return nil, fail
	}
	for _, fn := range ready {
		fn(root)
	}
	return root, nil
}

// Loaded reports whether Fetch has completed, successfully or not.
func (l *Loader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}
