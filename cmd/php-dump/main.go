// Command php-dump prints what the reflection parser extracts from a PHP
// file, or with -tree the raw tree-sitter node kinds. It is a debugging aid
// for parser changes.
//
//	go run ./cmd/php-dump [-tree] [file.php]
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mvp-joe/phpintel/internal/reflection"
	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

func main() {
	args := os.Args[1:]
	tree := false
	if len(args) > 0 && args[0] == "-tree" {
		tree = true
		args = args[1:]
	}
	path := "testdata/code/php/simple.php"
	if len(args) > 0 {
		path = args[0]
	}

	source, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	if tree {
		dumpTree(source)
		return
	}

	f, err := reflection.NewTreeSitterParser().Parse(path, source)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("=== CLASSES ===")
	for _, c := range f.Classes {
		fmt.Printf("  %s %s (line %d)\n", c.Kind, c.Name, c.StartLine)
		if c.Parent != "" {
			fmt.Printf("    extends %s\n", c.Parent)
		}
		if len(c.Interfaces) > 0 {
			fmt.Printf("    implements %s\n", strings.Join(c.Interfaces, ", "))
		}
		for _, k := range c.Constants {
			fmt.Printf("    const %s = %s\n", k.Name, k.Value)
		}
		for _, p := range c.Properties {
			fmt.Printf("    $%s %s\n", p.Name, p.Type)
		}
		for _, m := range c.Methods {
			fmt.Printf("    %s(%s): %s (line %d)\n", m.Name, m.Params, m.ReturnType, m.StartLine)
		}
	}

	fmt.Println("\n=== FUNCTIONS ===")
	for _, fn := range f.Functions {
		fmt.Printf("  %s(%s): %s (line %d)\n", fn.Name, fn.Params, fn.ReturnType, fn.StartLine)
	}

	fmt.Println("\n=== CONSTANTS ===")
	for _, k := range f.Constants {
		fmt.Printf("  %s = %s\n", k.Name, k.Value)
	}
}

func dumpTree(source []byte) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(sitter.NewLanguage(php.LanguagePHP())); err != nil {
		log.Fatal(err)
	}

	t := parser.Parse(source, nil)
	if t == nil {
		log.Fatal("failed to parse")
	}
	defer t.Close()

	walkTree(t.RootNode(), 0)
}

func walkTree(node *sitter.Node, depth int) {
	if node == nil {
		return
	}
	if node.IsNamed() {
		fmt.Printf("%s%s (line %d)\n", strings.Repeat("  ", depth), node.Kind(), node.StartPosition().Row+1)
		depth++
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walkTree(node.Child(i), depth)
	}
}
