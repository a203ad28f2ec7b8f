package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind classifies a dataset file.
type Kind string

const (
	KindTree       Kind = "tree"
	KindBoundaries Kind = "boundaries"
	KindTable      Kind = "table"
)

// DefaultInclude matches every dataset kind.
var DefaultInclude = []string{"**/*.json", "**/*.csv", "**/*.geojson"}

// Entry is a dataset found on disk.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// excludedDirs are never searched.
var excludedDirs = []string{".git", "node_modules", "vendor", ".healthviz"}

// Discover walks dir and returns the dataset files matching include. The
// name of an entry is its base name without extension; when two files share
// a name the first in path order wins. Entries are sorted by name.
func Discover(dir string, include []string) ([]Entry, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: resolve root: %w", err)
	}

	var entries []Entry
	seen := make(map[string]bool)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			for _, ex := range excludedDirs {
				if strings.EqualFold(d.Name(), ex) && path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || !matchesAny(rel, include) {
			return nil
		}
		kind, ok := kindOf(path)
		if !ok {
			return nil
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if seen[name] {
			return nil
		}
		seen[name] = true
		entries = append(entries, Entry{Name: name, Path: path, Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: walking %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Lookup finds the entry with the given name and kind. An empty kind
// matches any kind.
func Lookup(entries []Entry, name string, kind Kind) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name && (kind == "" || e.Kind == kind) {
			return e, true
		}
	}
	return Entry{}, false
}

func kindOf(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return KindTree, true
	case ".geojson":
		return KindBoundaries, true
	case ".csv":
		return KindTable, true
	}
	return "", false
}

// matchesAny matches relPath, and then its base name, against the patterns.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.PathMatch(pattern, normalized); err == nil && matched {
			return true
		}
		if matched, err := doublestar.PathMatch(pattern, filepath.Base(normalized)); err == nil && matched {
			return true
		}
	}
	return false
}
