package classmap

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	root    glob.Glob // pattern without a leading **/, for files in the root
}

// Discovery finds source files with include and ignore globs.
type Discovery struct {
	rootDir        string
	codePatterns   []compiledPattern
	ignorePatterns []compiledPattern
}

// NewDiscovery compiles the patterns. Patterns use '/' separators and are
// matched against paths relative to rootDir.
func NewDiscovery(rootDir string, codePatterns, ignorePatterns []string) (*Discovery, error) {
	d := &Discovery{rootDir: rootDir}

	var err error
	if d.codePatterns, err = compilePatterns(codePatterns); err != nil {
		return nil, err
	}
	if d.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	return d, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if simplified, ok := strings.CutPrefix(pattern, "**/"); ok {
			if cp.root, err = glob.Compile(simplified, '/'); err != nil {
				return nil, err
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

// Files walks the tree and returns matching files. Ignored directories are
// not descended into.
func (d *Discovery) Files() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(d.rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if relPath == "." {
			return nil
		}

		if d.Ignored(relPath) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		if matchesAny(relPath, d.codePatterns) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// Matches reports whether a root-relative path is a source file that is not
// ignored.
func (d *Discovery) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	return !d.Ignored(relPath) && matchesAny(relPath, d.codePatterns)
}

// Ignored reports whether a root-relative path matches an ignore pattern.
// A directory also matches patterns written for its contents, so
// "node_modules" is ignored by "node_modules/**".
func (d *Discovery) Ignored(relPath string) bool {
	if strings.HasPrefix(relPath, ".phpintel/") || relPath == ".phpintel" {
		return true
	}
	if matchesAny(relPath, d.ignorePatterns) {
		return true
	}
	return matchesAny(relPath+"/**", d.ignorePatterns)
}

// matchesAny lets "**/*.php" match files in the root as well.
func matchesAny(path string, patterns []compiledPattern) bool {
	rooted := !strings.Contains(path, "/")
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
		if rooted && cp.root != nil && cp.root.Match(path) {
			return true
		}
	}
	return false
}
