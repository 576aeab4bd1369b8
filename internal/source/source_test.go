package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for source:
// - Extract reads namespace, imports and the declared class
// - Extract stops at the first type declaration
// - Extract without a namespace statement yields an empty namespace
// - Extract on a missing file yields empty facts with the synthetic import
// - Grouped, aliased and rooted use statements
// - function/const imports are recognized but not added to the alias table
// - Resolve: aliases with trailing sub-paths, namespace-relative names, rooted names
// - Resolve: builtin types dropped, duplicates removed, self/static/$this

func writePHP(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "File.php")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtract_NamespaceImportsAndClass(t *testing.T) {
	t.Parallel()

	path := writePHP(t, `<?php
namespace App\Service;

use Foo\Bar as B;
use Psr\Log\LoggerInterface;
use \Rooted\Thing;
use Acme\{First, Second as Two};

final class UserService extends Base
{
    use SomeTrait;
}
`)

	facts := LineExtractor{}.Extract(path)

	assert.Equal(t, `App\Service`, facts.Namespace)
	assert.Equal(t, "UserService", facts.Class)
	assert.Equal(t, map[string]string{
		SyntheticImport:   "",
		"B":               `Foo\Bar`,
		"LoggerInterface": `Psr\Log\LoggerInterface`,
		"Thing":           `Rooted\Thing`,
		"First":           `Acme\First`,
		"Two":             `Acme\Second`,
	}, facts.Imports)
	assert.True(t, facts.Known())
}

func TestExtract_StopsAtDeclaration(t *testing.T) {
	t.Parallel()

	path := writePHP(t, `<?php
interface Contract
{
}
use Late\Import;
`)

	facts := LineExtractor{}.Extract(path)

	assert.Equal(t, "Contract", facts.Class)
	assert.NotContains(t, facts.Imports, "Import")
}

func TestExtract_NoNamespace(t *testing.T) {
	t.Parallel()

	path := writePHP(t, "<?php\nabstract class Plain {}\n")

	facts := LineExtractor{}.Extract(path)

	assert.Equal(t, "", facts.Namespace)
	assert.Equal(t, "Plain", facts.Class)
}

func TestExtract_MissingFile(t *testing.T) {
	t.Parallel()

	facts := LineExtractor{}.Extract(filepath.Join(t.TempDir(), "missing.php"))

	assert.Equal(t, "", facts.Namespace)
	assert.Equal(t, "", facts.Class)
	assert.Equal(t, map[string]string{SyntheticImport: ""}, facts.Imports)
	assert.False(t, facts.Known())
}

func TestExtract_FunctionAndConstImportsNotAliased(t *testing.T) {
	t.Parallel()

	path := writePHP(t, `<?php
namespace App;
use function Foo\helper;
use const Foo\LIMIT;
trait Helpers {}
`)

	facts := LineExtractor{}.Extract(path)

	assert.Equal(t, "Helpers", facts.Class)
	assert.NotContains(t, facts.Imports, "helper")
	assert.NotContains(t, facts.Imports, "LIMIT")
}

func TestParseUse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		stmt     string
		wantKind string
		want     map[string]string
		wantOK   bool
	}{
		{"plain", `use Foo\Bar;`, "", map[string]string{"Bar": `Foo\Bar`}, true},
		{"alias", `use Foo\Bar as Baz;`, "", map[string]string{"Baz": `Foo\Bar`}, true},
		{"list", `use A\One, B\Two as Deux;`, "", map[string]string{"One": `A\One`, "Deux": `B\Two`}, true},
		{"group multiline", "use Acme\\{\n    A,\n    B\\C as D\n};", "", map[string]string{"A": `Acme\A`, "D": `Acme\B\C`}, true},
		{"function", `use function Foo\bar;`, "function", map[string]string{"bar": `Foo\bar`}, true},
		{"constant", `use constant Foo\BAR;`, "const", map[string]string{"BAR": `Foo\BAR`}, true},
		{"not a use", `$x = 1;`, "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, imports, ok := ParseUse(tt.stmt)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKind, kind)
			if tt.wantOK {
				assert.Equal(t, tt.want, imports)
			}
		})
	}
}

func TestResolve_AliasWithSubPath(t *testing.T) {
	t.Parallel()

	path := writePHP(t, `<?php
namespace App;
use Foo\Bar as B;
class Consumer {}
`)

	got := NewResolver(nil).Resolve(path, []string{`B\Baz`})

	assert.Equal(t, []string{`\Foo\Bar\Baz`}, got)
}

func TestResolve_DropsBuiltinsAndDuplicates(t *testing.T) {
	t.Parallel()

	path := writePHP(t, `<?php
namespace App;
class Consumer {}
`)

	got := NewResolver(nil).Resolve(path, SplitUnion("int|int|Foo|null|Foo|?string|Foo[]"))

	assert.Equal(t, []string{`\App\Foo`}, got)
}

func TestResolve_SelfStaticThis(t *testing.T) {
	t.Parallel()

	path := writePHP(t, `<?php
namespace App\Model;
class User {}
`)

	got := NewResolver(nil).Resolve(path, []string{"self", "static", "$this"})

	assert.Equal(t, []string{`\App\Model\User`}, got)
}

func TestResolve_RootedAndGlobal(t *testing.T) {
	t.Parallel()

	path := writePHP(t, "<?php\nclass Global {}\n")

	got := NewResolver(nil).Resolve(path, []string{`\Rooted\Name`, "Local", "self"})

	assert.Equal(t, []string{`\Rooted\Name`, `\Local`, `\Global`}, got)
}

func TestResolve_RootedSkipsExtraction(t *testing.T) {
	t.Parallel()

	ex := &countingExtractor{}
	got := NewResolver(ex).Resolve("unused.php", []string{`\A`, "int", `\B`})

	assert.Equal(t, []string{`\A`, `\B`}, got)
	assert.Equal(t, 0, ex.calls)
}

func TestResolve_ExtractsOncePerCall(t *testing.T) {
	t.Parallel()

	ex := &countingExtractor{}
	NewResolver(ex).Resolve("unused.php", []string{"A", "B", "self"})

	assert.Equal(t, 1, ex.calls)
}

type countingExtractor struct {
	calls int
}

func (c *countingExtractor) Extract(path string) *Facts {
	c.calls++
	facts := NewFacts()
	facts.Namespace = "Ns"
	facts.Class = "Cls"
	return facts
}
