package symbols

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mvp-joe/phpintel/internal/match"
	"github.com/mvp-joe/phpintel/internal/reflection"
	"github.com/mvp-joe/phpintel/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for symbols:
// - Location of methods, properties (source scan), constants (labels) and functions
// - Location falls back to the class line for pseudo-properties and is empty when unknown
// - Doc follows inherit markers to interfaces and keeps the queried file for static returns
// - Doc synthesizes @var for @property annotations
// - FuncType/PropType prefer declared types and fall back to annotations
// - Inherit markers are recognized in every spelling and case
// - A subclass method parameter never shadows an inherited property declaration
// - A declared parent return type resolves to the parent class, or nothing without one
// - Info filters by static mode, visibility and pattern; constants use a case-sensitive prefix
// - Info without a class completes functions and global constants, and needs a pattern
// - Location encodes as a [path, line|label] pair

const hasNameSource = `<?php
namespace App\Contracts;

interface HasName
{
    const SEPARATOR = '-';

    /**
     * Returns the display name.
     * @return string
     */
    public function name();
}
`

const baseSource = `<?php
namespace App;

use App\Contracts\HasName;

abstract class Base implements HasName
{
    const KIND = 'base';
    const LIST = [1, 2];

    protected $label;
    private $hidden;

    /**
     * @return static
     */
    public static function create()
    {
        return new static();
    }

    /**
     * @return Base
     */
    public function name()
    {
        return '';
    }
}
`

const userSource = `<?php
namespace App;

use App\Model\Profile as P;

/**
 * @property-read P $profile
 */
final class User extends Base
{
    const KIND = 'user';

    public string $email;
    public static int $count = 0;

    /**
     * {@inheritDoc}
     */
    public function name()
    {
        return $this->email;
    }

    public function self(): self
    {
        return $this;
    }

    /**
     * @return P|null
     */
    public function getProfile()
    {
        return null;
    }

    private function secret(): int
    {
        return 1;
    }

    public ?Base $next = null;
}
`

const helpersSource = `<?php
namespace App;

define('APP_VERSION', '2.0');

/**
 * Formats a value.
 */
function helper(string $value): ?User
{
    return null;
}
`

type fixture struct {
	dir      string
	user     string
	base     string
	hasName  string
	helpers  string
	resolver *Resolver
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newFixture(t *testing.T, policy match.Policy) *fixture {
	t.Helper()

	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		hasName: write(t, dir, "src/Contracts/HasName.php", hasNameSource),
		base:    write(t, dir, "src/Base.php", baseSource),
		user:    write(t, dir, "src/User.php", userSource),
		helpers: write(t, dir, "src/helpers.php", helpersSource),
	}

	registry, err := reflection.NewRegistry(reflection.NewTreeSitterParser(), reflection.WithClassMap(map[string]string{
		`App\Contracts\HasName`: f.hasName,
		`App\Base`:              f.base,
		`App\User`:              f.user,
	}))
	require.NoError(t, err)
	t.Cleanup(registry.Close)
	require.NoError(t, registry.Load(f.helpers))

	matcher, err := match.New(string(policy))
	require.NoError(t, err)

	f.resolver = NewResolver(registry, source.NewResolver(nil), matcher)
	return f
}

func TestLocation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, match.PolicyHead)
	r := f.resolver

	assert.Equal(t, Location{Path: f.user, Line: 19}, r.Location(`App\User`, "name"))
	assert.Equal(t, Location{Path: f.base, Line: 17}, r.Location(`\App\User`, "create"))
	assert.Equal(t, Location{Path: f.user, Line: 9}, r.Location(`App\User`, ""))

	t.Run("properties are found by scanning source", func(t *testing.T) {
		assert.Equal(t, Location{Path: f.user, Line: 13}, r.Location(`App\User`, "email"))
		assert.Equal(t, Location{Path: f.user, Line: 14}, r.Location(`App\User`, "$count"))
		assert.Equal(t, Location{Path: f.base, Line: 11}, r.Location(`App\User`, "label"))
	})

	t.Run("pseudo-properties point at the class", func(t *testing.T) {
		assert.Equal(t, Location{Path: f.user, Line: 9}, r.Location(`App\User`, "profile"))
	})

	t.Run("constants climb ancestors then interfaces", func(t *testing.T) {
		assert.Equal(t, Location{Path: f.base, Label: "const LIST"}, r.Location(`App\User`, "LIST"))
		assert.Equal(t, Location{Path: f.hasName, Label: "const SEPARATOR"}, r.Location(`App\Base`, "SEPARATOR"))
	})

	t.Run("functions", func(t *testing.T) {
		assert.Equal(t, Location{Path: f.helpers, Line: 9}, r.Location("", `App\helper`))
	})

	t.Run("unknown symbols are empty", func(t *testing.T) {
		assert.True(t, r.Location(`App\Nope`, "x").IsZero())
		assert.True(t, r.Location(`App\User`, "nope").IsZero())
		assert.True(t, r.Location("", "nope").IsZero())
	})
}

func TestDoc(t *testing.T) {
	t.Parallel()

	f := newFixture(t, match.PolicyHead)
	r := f.resolver

	path, doc := r.Doc(`App\User`, "name", true)
	assert.Equal(t, f.hasName, path)
	assert.Equal(t, "Returns the display name.\n@return string", doc)

	path, doc = r.Doc(`App\User`, "create", true)
	assert.Equal(t, f.user, path, "static returns are relative to the queried class")
	assert.Equal(t, "@return static", doc)

	path, doc = r.Doc(`App\User`, "profile", false)
	assert.Equal(t, f.user, path)
	assert.Equal(t, "@var P", doc)

	path, doc = r.Doc("", `App\helper`, true)
	assert.Equal(t, f.helpers, path)
	assert.Equal(t, "Formats a value.", doc)

	path, doc = r.Doc(`App\Missing`, "x", true)
	assert.Empty(t, path)
	assert.Empty(t, doc)
}

func TestFuncTypeAndPropType(t *testing.T) {
	t.Parallel()

	f := newFixture(t, match.PolicyHead)
	r := f.resolver

	assert.Equal(t, []string{`\App\User`}, r.FuncType(`App\User`, "self"))
	assert.Equal(t, []string{`\App\User`}, r.FuncType(`App\User`, "create"))
	assert.Equal(t, []string{`\App\Model\Profile`}, r.FuncType(`App\User`, "getProfile"))
	assert.Empty(t, r.FuncType(`App\User`, "name"))
	assert.Empty(t, r.FuncType(`App\User`, "secret"))
	assert.Equal(t, []string{`\App\User`}, r.FuncType("", `App\helper`))
	assert.Empty(t, r.FuncType(`App\Missing`, "x"))

	assert.Equal(t, []string{`\App\Base`}, r.PropType(`App\User`, "next"))
	assert.Equal(t, []string{`\App\Model\Profile`}, r.PropType(`App\User`, "profile"))
	assert.Empty(t, r.PropType(`App\User`, "email"))
	assert.Empty(t, r.PropType(`App\User`, "nope"))
}

// newResolver builds a resolver over classes, a map from class name to
// source, each written to its own file.
func newResolver(t *testing.T, classes map[string]string) (*Resolver, map[string]string) {
	t.Helper()

	dir := t.TempDir()
	files := make(map[string]string, len(classes))
	for class, src := range classes {
		files[class] = write(t, dir, filepath.Base(filepath.FromSlash(strings.ReplaceAll(class, `\`, "/")))+".php", src)
	}

	registry, err := reflection.NewRegistry(reflection.NewTreeSitterParser(), reflection.WithClassMap(files))
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	matcher, err := match.New(string(match.PolicyHead))
	require.NoError(t, err)
	return NewResolver(registry, source.NewResolver(nil), matcher), files
}

const itemSource = `<?php
namespace Shop;

class Item
{
    /**
     * Builds a copy.
     * @return Item
     */
    public function copy()
    {
    }
}
`

func TestDoc_InheritMarkerSpellings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		marker string
	}{
		{"inline camel case", "{@inheritDoc}"},
		{"inline lower case", "{@inheritdoc}"},
		{"tag camel case", "@inheritDoc"},
		{"tag lower case", "@inheritdoc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, files := newResolver(t, map[string]string{
				`Shop\Item`: itemSource,
				`Shop\Book`: `<?php
namespace Shop;

class Book extends Item
{
    /** ` + tt.marker + ` */
    public function copy()
    {
    }
}
`,
			})

			path, doc := r.Doc(`Shop\Book`, "copy", true)
			assert.Equal(t, files[`Shop\Item`], path)
			assert.Equal(t, "Builds a copy.\n@return Item", doc)
			assert.Equal(t, []string{`\Shop\Item`}, r.FuncType(`Shop\Book`, "copy"))
		})
	}
}

func TestLocation_PropertyNotShadowedByParameter(t *testing.T) {
	t.Parallel()

	r, files := newResolver(t, map[string]string{
		`Shop\Person`: `<?php
namespace Shop;

class Person
{
    protected $name;
}
`,
		`Shop\Customer`: `<?php
namespace Shop;

class Customer extends Person
{
    public function setName($name)
    {
        $this->name = $name;
    }
}
`,
	})

	assert.Equal(t, Location{Path: files[`Shop\Person`], Line: 6}, r.Location(`Shop\Customer`, "name"))
}

func TestFuncType_ParentReturnType(t *testing.T) {
	t.Parallel()

	r, _ := newResolver(t, map[string]string{
		`Shop\Item`: itemSource,
		`Shop\Book`: `<?php
namespace Shop;

class Book extends Item
{
    public function base(): parent
    {
    }
}
`,
		`Shop\Shelf`: `<?php
namespace Shop;

class Shelf
{
    public function base(): parent|Item
    {
    }
}
`,
	})

	assert.Equal(t, []string{`\Shop\Item`}, r.FuncType(`Shop\Book`, "base"))
	assert.Equal(t, []string{`\Shop\Item`}, r.FuncType(`Shop\Shelf`, "base"), "parent is dropped without a parent class")
}

func words(items []CompletionItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Word)
	}
	return out
}

func TestInfo_ClassMembers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, match.PolicyHead)
	r := f.resolver

	all := r.Info(`App\User`, "", ModeBoth, false)
	assert.Equal(t, []string{
		"KIND", "LIST", "SEPARATOR",
		"name", "self", "getProfile", "secret", "create",
		"email", "$count", "next", "label",
		"profile",
	}, words(all))

	byWord := map[string]CompletionItem{}
	for _, item := range all {
		if _, ok := byWord[item.Word]; !ok {
			byWord[item.Word] = item
		}
	}
	assert.Equal(t, " +@ LIST = [...]", byWord["LIST"].Abbr)
	assert.Equal(t, KindConstant, byWord["LIST"].Kind)
	assert.Equal(t, "  - secret()", byWord["secret"].Abbr)
	assert.Equal(t, " +@ create()", byWord["create"].Abbr)
	assert.True(t, byWord["create"].ICase)
	assert.Equal(t, KindProperty, byWord["email"].Kind)
	assert.False(t, byWord["email"].ICase)

	pseudo := all[len(all)-1]
	assert.Equal(t, KindProperty, pseudo.Kind)
	assert.Equal(t, "@var P", pseudo.Info)

	nonStatic := r.Info(`App\User`, "", ModeNonStatic, true)
	assert.Equal(t, []string{"name", "self", "getProfile", "email", "next", "profile"}, words(nonStatic))

	static := r.Info(`App\User`, "", ModeStatic, false)
	assert.Equal(t, []string{"KIND", "LIST", "SEPARATOR", "create", "$count"}, words(static))
}

func TestInfo_PatternFiltering(t *testing.T) {
	t.Parallel()

	f := newFixture(t, match.PolicyHead)
	r := f.resolver

	// Members match case-insensitively, constants use a case-sensitive
	// prefix whatever the match policy.
	assert.Equal(t, []string{"SEPARATOR", "self", "secret"}, words(r.Info(`App\User`, "SE", ModeBoth, false)))
	assert.Equal(t, []string{"self", "secret"}, words(r.Info(`App\User`, "se", ModeBoth, false)))
	assert.Empty(t, r.Info(`App\User`, "kind", ModeBoth, false))

	assert.Empty(t, r.Info(`App\Missing`, "", ModeBoth, false))
}

func TestInfo_FunctionsAndGlobalConstants(t *testing.T) {
	t.Parallel()

	f := newFixture(t, match.PolicyHead)
	r := f.resolver

	assert.Empty(t, r.Info("", "", ModeBoth, false), "no class and no pattern completes nothing")

	items := r.Info("", "app", ModeBoth, false)
	require.Len(t, items, 1)
	assert.Equal(t, `App\helper`, items[0].Word)
	assert.Equal(t, `App\helper(string $value)`, items[0].Abbr)
	assert.Equal(t, KindFunction, items[0].Kind)
	assert.Equal(t, "Formats a value.", items[0].Info)

	items = r.Info("", "APP", ModeBoth, false)
	assert.Equal(t, []string{`App\helper`, "APP_VERSION"}, words(items))
	assert.Equal(t, "APP_VERSION = '2.0'", items[1].Abbr)
}

func TestInfo_SubsequencePolicy(t *testing.T) {
	t.Parallel()

	f := newFixture(t, match.PolicySubsequence)
	r := f.resolver

	assert.Equal(t, []string{`App\helper`}, words(r.Info("", "hlp", ModeBoth, false)))
	assert.Equal(t, []string{"getProfile", "profile"}, words(r.Info(`App\User`, "prf", ModeNonStatic, false)))
	// Constants stay on a case-sensitive prefix.
	assert.NotContains(t, words(r.Info(`App\User`, "SPR", ModeBoth, false)), "SEPARATOR")
}

func TestParseStaticMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]StaticMode{"": ModeBoth, "both": ModeBoth, "NonStatic": ModeNonStatic, "static": ModeStatic} {
		got, err := ParseStaticMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStaticMode("sometimes")
	assert.Error(t, err)
}

func TestModifierSymbols(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "!-@", modifierSymbols(reflection.ModFinal|reflection.ModPrivate|reflection.ModStatic))
	assert.Equal(t, "#", modifierSymbols(reflection.ModProtected))
	assert.Equal(t, "+", modifierSymbols(0))
	assert.Equal(t, "!+@", modifierSymbols(reflection.ModFinal|reflection.ModPublic|reflection.ModStatic))
}

func TestCleanDoc(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Summary.\n\n@return int", CleanDoc("/**\n * Summary.\n *\n * @return int\n */"))
	assert.Equal(t, "{@inheritDoc}", CleanDoc("/** {@inheritDoc} */"))
	assert.Empty(t, CleanDoc(""))
}

func TestLocation_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Location{Path: "a.php", Line: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `["a.php", 3]`, string(data))

	data, err = json.Marshal(Location{Path: "a.php", Label: "const X"})
	require.NoError(t, err)
	assert.JSONEq(t, `["a.php", "const X"]`, string(data))

	data, err = json.Marshal(Location{})
	require.NoError(t, err)
	assert.JSONEq(t, `["", ""]`, string(data))

	var loc Location
	require.NoError(t, json.Unmarshal([]byte(`["b.php", "const Y"]`), &loc))
	assert.Equal(t, Location{Path: "b.php", Label: "const Y"}, loc)
}
