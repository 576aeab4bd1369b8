// Package classmap produces the class name to source file map that drives
// indexing, either from Composer's optimized autoloader or by scanning the
// project, and derives PSR-4 namespaces from composer.json.
package classmap

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/mvp-joe/phpintel/internal/reflection"
)

// Entry is one class known to the autoloader.
type Entry struct {
	Class string `json:"class"`
	Path  string `json:"path"`
}

// Generator regenerates the project's class map.
type Generator interface {
	Generate(ctx context.Context) ([]Entry, error)
}

// Map converts entries to a class name -> path map.
func Map(entries []Entry) map[string]string {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Class] = e.Path
	}
	return m
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Class < entries[j].Class })
}

// Scanner builds the class map by parsing every source file.
type Scanner struct {
	discovery *Discovery
	parser    reflection.Parser
}

// NewScanner creates a scanner over root.
func NewScanner(root string, codePatterns, ignorePatterns []string, parser reflection.Parser) (*Scanner, error) {
	d, err := NewDiscovery(root, codePatterns, ignorePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to compile path patterns: %w", err)
	}
	return &Scanner{discovery: d, parser: parser}, nil
}

// Generate implements Generator. Files that cannot be read or parsed are
// skipped with a warning.
func (s *Scanner) Generate(ctx context.Context) ([]Entry, error) {
	files, err := s.discovery.Files()
	if err != nil {
		return nil, fmt.Errorf("failed to discover source files: %w", err)
	}

	entries := []Entry{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries = append(entries, s.Entries(path)...)
	}
	sortEntries(entries)
	return entries, nil
}

// Entries returns the classes declared in one file.
func (s *Scanner) Entries(path string) []Entry {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: failed to read %s: %v", path, err)
		return nil
	}
	f, err := s.parser.Parse(path, src)
	if err != nil {
		log.Printf("Warning: failed to parse %s: %v", path, err)
		return nil
	}
	entries := make([]Entry, 0, len(f.Classes))
	for _, c := range f.Classes {
		entries = append(entries, Entry{Class: c.Name, Path: path})
	}
	return entries
}

// Discovery returns the scanner's file matcher.
func (s *Scanner) Discovery() *Discovery {
	return s.discovery
}

// Auto prefers Composer and falls back to scanning.
type Auto struct {
	Composer *Composer // nil disables Composer
	Scanner  *Scanner
}

// Generate implements Generator.
func (a *Auto) Generate(ctx context.Context) ([]Entry, error) {
	if a.Composer != nil && a.Composer.Available() {
		entries, err := a.Composer.Generate(ctx)
		if err == nil {
			return entries, nil
		}
		log.Printf("Warning: composer class map failed, scanning sources instead: %v", err)
	}
	return a.Scanner.Generate(ctx)
}

// Cached returns a class map without running external tools: Composer's last
// dump when there is one, a source scan otherwise.
func (a *Auto) Cached(ctx context.Context) ([]Entry, error) {
	if a.Composer != nil {
		entries, err := a.Composer.Cached()
		if err != nil {
			log.Printf("Warning: failed to read composer class map, scanning sources instead: %v", err)
		} else if len(entries) > 0 {
			return entries, nil
		}
	}
	return a.Scanner.Generate(ctx)
}

// Files returns autoloaded function files when Composer is in use.
func (a *Auto) Files() []string {
	if a.Composer == nil || !a.Composer.Available() {
		return nil
	}
	files, err := a.Composer.Files()
	if err != nil {
		log.Printf("Warning: failed to read composer autoload files: %v", err)
		return nil
	}
	return files
}
