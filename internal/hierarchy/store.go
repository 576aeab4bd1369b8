// Package hierarchy maintains the on-disk reverse index of class
// hierarchies: for every parent class the classes extending it, and for
// every interface the classes implementing it.
package hierarchy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"
)

// Partition names an index subdirectory.
type Partition string

const (
	Extends    Partition = "extends"
	Interfaces Partition = "interfaces"
)

// PartitionFor maps the interface flag of a query to its partition.
func PartitionFor(isInterface bool) Partition {
	if isInterface {
		return Interfaces
	}
	return Extends
}

// Key encodes a fully-qualified name as a file name. The namespace separator
// becomes '-', which cannot appear in a PHP identifier.
func Key(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), `\`)
	return strings.ReplaceAll(name, `\`, "-")
}

// Store reads and writes index files below a root directory. Writes are not
// synchronized across processes; a single writer is assumed.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir. Nothing is created until the first
// write.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the index root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) path(p Partition, name string) string {
	return filepath.Join(s.root, string(p), Key(name))
}

// Append adds child to the list stored for name. Existing entries keep their
// order and child is not added twice.
func (s *Store) Append(p Partition, name, child string) error {
	child = strings.TrimPrefix(child, `\`)
	path := s.path(p, name)

	// An unreadable file is rewritten from scratch.
	list, _ := readList(path)
	list = dedupe(append(list, child))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode index entry: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Ls returns the sorted direct descendants recorded for name. A missing or
// unreadable index file yields an empty list.
func (s *Store) Ls(name string, isInterface bool) []string {
	list, err := readList(s.path(PartitionFor(isInterface), name))
	if err != nil {
		return []string{}
	}
	list = dedupe(list)
	sort.Strings(list)
	return list
}

// Descendants returns every class reachable from name through the index.
// For an interface that includes implementors, their subclasses and
// sub-interfaces; for a class its subclasses at any depth.
func (s *Store) Descendants(name string, isInterface bool) ([]string, error) {
	start := strings.TrimPrefix(name, `\`)

	g := graph.New(graph.StringHash, graph.Directed())
	if err := g.AddVertex(start); err != nil {
		return nil, fmt.Errorf("failed to add vertex: %w", err)
	}

	partitions := []Partition{Extends}
	if isInterface {
		partitions = []Partition{Interfaces, Extends}
	}

	queue := []string{start}
	expanded := map[string]bool{}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if expanded[cur] {
			continue
		}
		expanded[cur] = true

		for _, p := range partitions {
			children, err := readList(s.path(p, cur))
			if err != nil {
				continue
			}
			for _, child := range children {
				if err := g.AddVertex(child); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
					return nil, fmt.Errorf("failed to add vertex: %w", err)
				}
				if err := g.AddEdge(cur, child); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
					return nil, fmt.Errorf("failed to add edge: %w", err)
				}
				queue = append(queue, child)
			}
		}
	}

	var out []string
	err := graph.BFS(g, start, func(v string) bool {
		if v != start {
			out = append(out, v)
		}
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk hierarchy: %w", err)
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func readList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return list, nil
}

func dedupe(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, name := range list {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
