package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/ziadkadry99/healthviz/internal/dataset"
	"github.com/ziadkadry99/healthviz/internal/hierarchy"
)

var errUnknownChart = errors.New("unknown chart")

// catalog resolves dataset names and loads each tree once.
type catalog struct {
	dir     string
	include []string

	mu      sync.Mutex
	loaders map[string]*dataset.Loader
}

func newCatalog(dir string, include []string) *catalog {
	return &catalog{dir: dir, include: include, loaders: make(map[string]*dataset.Loader)}
}

func (c *catalog) entries() ([]dataset.Entry, error) {
	return dataset.Discover(c.dir, c.include)
}

func (c *catalog) lookup(name string, kind dataset.Kind) (dataset.Entry, error) {
	entries, err := c.entries()
	if err != nil {
		return dataset.Entry{}, err
	}
	e, ok := dataset.Lookup(entries, name, kind)
	if !ok {
		return dataset.Entry{}, fmt.Errorf("%w: %q", errUnknownChart, name)
	}
	return e, nil
}

// tree returns the parsed tree of the named chart. A failed load stays
// failed for that chart.
func (c *catalog) tree(ctx context.Context, name string) (*hierarchy.Node, error) {
	c.mu.Lock()
	l, ok := c.loaders[name]
	c.mu.Unlock()

	if !ok {
		e, err := c.lookup(name, dataset.KindTree)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if l, ok = c.loaders[name]; !ok {
			l = dataset.NewLoader(name, dataset.FileSource(e.Path))
			l.OnReady(func(root *hierarchy.Node) {
				log.Printf("server: chart %s ready (%d top-level nodes)", name, len(root.Children))
			})
			c.loaders[name] = l
		}
		c.mu.Unlock()
	}
	// The outcome is cached for every later request.
	return l.Fetch(context.WithoutCancel(ctx))
}
