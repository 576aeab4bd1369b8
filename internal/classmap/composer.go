package classmap

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/phpintel/internal/reflection"
	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// Composer regenerates the optimized autoloader and reads its class map.
type Composer struct {
	root   string
	binary string
}

// NewComposer creates a Composer generator for the project at root.
func NewComposer(root, binary string) *Composer {
	return &Composer{root: root, binary: binary}
}

// Available reports whether composer.json exists and the binary resolves.
func (c *Composer) Available() bool {
	if _, err := os.Stat(filepath.Join(c.root, "composer.json")); err != nil {
		return false
	}
	if c.binary == "" {
		return false
	}
	_, err := exec.LookPath(c.binary)
	return err == nil
}

// Generate implements Generator.
func (c *Composer) Generate(ctx context.Context) ([]Entry, error) {
	cmd := exec.CommandContext(ctx, c.binary, "dump-autoload", "--optimize", "--no-interaction", "--quiet")
	cmd.Dir = c.root
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to dump composer autoloader: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return ReadClassMap(c.autoloadFile("autoload_classmap.php"))
}

// Cached reads the class map Composer generated last time without running
// Composer. A project that was never dumped yields nil, nil.
func (c *Composer) Cached() ([]Entry, error) {
	path := c.autoloadFile("autoload_classmap.php")
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	return ReadClassMap(path)
}

// Files returns the paths listed in autoload_files.php.
func (c *Composer) Files() ([]string, error) {
	path := c.autoloadFile("autoload_files.php")
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	elements, err := readArray(path)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(elements))
	for _, e := range elements {
		files = append(files, e.value)
	}
	return files, nil
}

func (c *Composer) autoloadFile(name string) string {
	return filepath.Join(c.root, "vendor", "composer", name)
}

// ReadClassMap parses a Composer autoload_classmap.php file.
func ReadClassMap(path string) ([]Entry, error) {
	elements, err := readArray(path)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(elements))
	for _, e := range elements {
		if e.key == "" || e.value == "" {
			continue
		}
		entries = append(entries, Entry{Class: e.key, Path: e.value})
	}
	sortEntries(entries)
	return entries, nil
}

type arrayElement struct {
	key   string
	value string
}

// readArray reads the `key => $dirVar . '/path'` elements of a generated
// Composer autoload file. $vendorDir is the directory above the file's own
// directory and $baseDir the one above that.
func readArray(path string) ([]arrayElement, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	vendorDir := filepath.Dir(filepath.Dir(path))
	dirs := map[string]string{
		"$vendorDir": vendorDir,
		"$baseDir":   filepath.Dir(vendorDir),
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitter.NewLanguage(php.LanguagePHP())); err != nil {
		return nil, fmt.Errorf("failed to set php language: %w", err)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}
	defer tree.Close()

	var elements []arrayElement
	reflection.WalkTree(tree.RootNode(), func(node *sitter.Node) bool {
		if node.Kind() != "array_element_initializer" {
			return true
		}
		if node.NamedChildCount() != 2 {
			return false
		}
		key := reflection.StringLiteral(node.NamedChild(0), src)
		value := pathExpression(node.NamedChild(1), src, dirs)
		elements = append(elements, arrayElement{key: key, value: value})
		return false
	})
	return elements, nil
}

// pathExpression evaluates `$dir . '/rel'` and plain string paths.
func pathExpression(node *sitter.Node, src []byte, dirs map[string]string) string {
	switch node.Kind() {
	case "binary_expression":
		if node.NamedChildCount() != 2 {
			return ""
		}
		left, right := node.NamedChild(0), node.NamedChild(1)
		base := pathExpression(left, src, dirs)
		if base == "" {
			return ""
		}
		return filepath.Clean(base + filepath.FromSlash(reflection.StringLiteral(right, src)))
	case "variable_name":
		return dirs[reflection.NodeText(node, src)]
	case "string", "encapsed_string":
		return filepath.FromSlash(reflection.StringLiteral(node, src))
	}
	return ""
}
