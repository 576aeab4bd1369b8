package reflection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for reflection:
// - Parser reads namespaces, imports, classes, interfaces, traits and enums
// - Parser records modifiers, doc comments, start lines and qualified types
// - Parser records constructor-promoted properties and global constants
// - Registry resolves parents, the full interface set and inherited members
// - Registry hides private ancestor properties and survives inheritance cycles
// - Registry loads classes lazily through the class map and re-parses edited files
// - Unknown names return ErrNotFound
// - The testdata PHP file parses into its interface, class and function

const fixtureSource = `<?php
namespace App\Model;

use App\Contracts\Identifiable;
use App\Support\{HasTimestamps, Collection as Bag};

define('APP_VERSION', '1.2');
const DEFAULT_LIMIT = 10;

/**
 * A user account.
 * @property-read string $email
 */
final class User extends Base implements Identifiable, \JsonSerializable
{
    use HasTimestamps;

    const TYPES = ['admin', 'guest'];
    public const ROLE = 'user';

    private static ?User $current = null;
    protected int $id, $age;

    public function __construct(private readonly string $name, Bag $tags) {}

    /**
     * @return static
     */
    public static function find(int $id): ?self
    {
        return null;
    }

    abstract protected function items(): Bag|array;
}

interface Named extends Identifiable
{
    public function name(): string;
}

function helper(string $x): int
{
    return 1;
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func parseFixture(t *testing.T) *File {
	t.Helper()
	f, err := NewTreeSitterParser().Parse("User.php", []byte(fixtureSource))
	require.NoError(t, err)
	return f
}

func TestParser_Class(t *testing.T) {
	t.Parallel()

	f := parseFixture(t)
	require.Len(t, f.Classes, 2)

	user := f.Classes[0]
	assert.Equal(t, `App\Model\User`, user.Name)
	assert.Equal(t, KindClass, user.Kind)
	assert.True(t, user.Modifiers.Has(ModFinal))
	assert.Equal(t, `App\Model\Base`, user.Parent)
	assert.Equal(t, []string{`App\Contracts\Identifiable`, "JsonSerializable"}, user.Interfaces)
	assert.Equal(t, []string{`App\Support\HasTimestamps`}, user.Traits)
	assert.Contains(t, user.DocComment, "@property-read string $email")
	assert.Equal(t, 14, user.StartLine)
	assert.Equal(t, "User", user.ShortName())
}

func TestParser_Members(t *testing.T) {
	t.Parallel()

	user := parseFixture(t).Classes[0]

	names := make([]string, 0, len(user.Methods))
	for _, m := range user.Methods {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"__construct", "find", "items"}, names)

	find := user.ownMethod("FIND")
	require.NotNil(t, find)
	assert.True(t, find.Modifiers.Has(ModPublic|ModStatic))
	assert.Equal(t, "int $id", find.Params)
	assert.Equal(t, "self|null", find.ReturnType)
	assert.Contains(t, find.DocComment, "@return static")
	assert.Equal(t, 29, find.StartLine)

	items := user.ownMethod("items")
	require.NotNil(t, items)
	assert.True(t, items.Modifiers.Has(ModAbstract|ModProtected))
	assert.Equal(t, `\App\Support\Collection|array`, items.ReturnType)

	current := user.ownProperty("current")
	require.NotNil(t, current)
	assert.True(t, current.Modifiers.Has(ModPrivate|ModStatic))
	assert.Equal(t, `\App\Model\User|null`, current.Type)

	require.NotNil(t, user.ownProperty("id"))
	require.NotNil(t, user.ownProperty("age"))
	assert.Equal(t, "int", user.ownProperty("age").Type)

	promoted := user.ownProperty("name")
	require.NotNil(t, promoted)
	assert.True(t, promoted.Modifiers.Has(ModPrivate|ModReadonly))
	assert.Equal(t, "string", promoted.Type)
	assert.Nil(t, user.ownProperty("tags"))

	types := user.ownConstant("TYPES")
	require.NotNil(t, types)
	assert.True(t, types.IsArray)
	role := user.ownConstant("ROLE")
	require.NotNil(t, role)
	assert.Equal(t, "'user'", role.Value)
	assert.False(t, role.IsArray)
}

func TestParser_InterfaceFunctionsAndConstants(t *testing.T) {
	t.Parallel()

	f := parseFixture(t)

	named := f.Classes[1]
	assert.True(t, named.IsInterface())
	assert.Equal(t, []string{`App\Contracts\Identifiable`}, named.Interfaces)
	assert.Empty(t, named.Parent)

	require.Len(t, f.Functions, 1)
	assert.Equal(t, `App\Model\helper`, f.Functions[0].Name)
	assert.Equal(t, "string $x", f.Functions[0].Params)
	assert.Equal(t, "int", f.Functions[0].ReturnType)

	constants := map[string]string{}
	for _, c := range f.Constants {
		constants[c.Name] = c.Value
	}
	assert.Equal(t, "'1.2'", constants["APP_VERSION"])
	assert.Equal(t, "10", constants[`App\Model\DEFAULT_LIMIT`])
}

func TestParser_BracedNamespaces(t *testing.T) {
	t.Parallel()

	src := `<?php
namespace First {
    class A {}
}
namespace Second {
    use First\A;
    class B extends A {}
}
`
	f, err := NewTreeSitterParser().Parse("multi.php", []byte(src))
	require.NoError(t, err)
	require.Len(t, f.Classes, 2)
	assert.Equal(t, `First\A`, f.Classes[0].Name)
	assert.Equal(t, `Second\B`, f.Classes[1].Name)
	assert.Equal(t, `First\A`, f.Classes[1].Parent)
}

func newDefinedRegistry(t *testing.T, classes ...*Class) *Registry {
	t.Helper()
	r, err := NewRegistry(nil)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	r.Define(classes...)
	return r
}

func TestRegistry_Hierarchy(t *testing.T) {
	t.Parallel()

	r := newDefinedRegistry(t,
		&Class{Name: "I", Kind: KindInterface, Methods: []*Method{{Name: "run"}}, Constants: []*Constant{{Name: "LEVEL", Value: "1"}}},
		&Class{Name: "J", Kind: KindInterface, Interfaces: []string{"I"}},
		&Class{Name: "A", Kind: KindClass, Interfaces: []string{"J", "Missing"}, Methods: []*Method{{Name: "run", Modifiers: ModPublic}}},
		&Class{Name: `App\B`, Kind: KindClass, Parent: "A"},
	)

	b, err := r.Class(`\app\b`)
	require.NoError(t, err)

	parent, err := r.Parent(b)
	require.NoError(t, err)
	assert.Equal(t, "A", parent.Name)

	assert.Equal(t, []string{"J", "I", "Missing"}, r.InterfaceNames(b))
	assert.Len(t, r.Interfaces(b), 2)

	m, err := r.Method(b, "RUN")
	require.NoError(t, err)
	assert.Equal(t, "A", m.Class)

	k, err := r.Constant(b, "LEVEL")
	require.NoError(t, err)
	assert.Equal(t, "I", k.Class)

	_, err = r.Parent(parent)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Class("Nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Method(b, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_PropertiesAndTraits(t *testing.T) {
	t.Parallel()

	r := newDefinedRegistry(t,
		&Class{Name: "T", Kind: KindTrait, Properties: []*Property{{Name: "fromTrait"}}, Methods: []*Method{{Name: "traitMethod"}}},
		&Class{Name: "Base", Properties: []*Property{
			{Name: "secret", Modifiers: ModPrivate},
			{Name: "shared", Modifiers: ModProtected},
		}},
		&Class{Name: "Child", Parent: "Base", Traits: []string{"T"}, Properties: []*Property{{Name: "own", Modifiers: ModPublic}}},
	)

	child, err := r.Class("Child")
	require.NoError(t, err)

	var names []string
	for _, p := range r.Properties(child) {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"own", "fromTrait", "shared"}, names)

	_, err = r.Property(child, "$secret")
	assert.ErrorIs(t, err, ErrNotFound)

	m, err := r.Method(child, "traitMethod")
	require.NoError(t, err)
	assert.Equal(t, "T", m.Class)
}

func TestRegistry_InheritanceCycle(t *testing.T) {
	t.Parallel()

	r := newDefinedRegistry(t,
		&Class{Name: "A", Parent: "B", Methods: []*Method{{Name: "a"}}},
		&Class{Name: "B", Parent: "A", Methods: []*Method{{Name: "b"}}},
	)

	a, err := r.Class("A")
	require.NoError(t, err)
	assert.Len(t, r.Methods(a), 2)
}

func TestRegistry_ClassMapLoadAndReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "src/Foo.php", "<?php\nnamespace App;\nclass Foo { public function one() {} }\n")

	r, err := NewRegistry(NewTreeSitterParser(), WithClassMap(map[string]string{`App\Foo`: path}))
	require.NoError(t, err)
	defer r.Close()

	foo, err := r.Class(`\App\Foo`)
	require.NoError(t, err)
	assert.Equal(t, path, foo.File)
	assert.Len(t, r.Methods(foo), 1)

	writeFile(t, dir, "src/Foo.php", "<?php\nnamespace App;\nclass Foo { public function one() {} public function two() {} }\n")

	foo, err = r.Class(`App\Foo`)
	require.NoError(t, err)
	assert.Len(t, r.Methods(foo), 2)
}

func TestRegistry_FunctionsAndBuiltins(t *testing.T) {
	t.Parallel()

	builtins, err := ParseBuiltins([]byte(`{"functions":["strlen","array_map"],"constants":{"PHP_EOL":"'\\n'"}}`))
	require.NoError(t, err)

	r, err := NewRegistry(nil, WithBuiltins(builtins))
	require.NoError(t, err)
	defer r.Close()

	r.DefineFunctions(&Function{Name: `App\helper`, File: "helpers.php", StartLine: 3})
	r.DefineConstants(&Constant{Name: "APP_ENV", Value: "'dev'"})

	fn, err := r.Function("STRLEN")
	require.NoError(t, err)
	assert.True(t, fn.Internal)

	fn, err = r.Function(`\App\helper`)
	require.NoError(t, err)
	assert.Equal(t, 3, fn.StartLine)

	var names []string
	for _, f := range r.Functions() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{`App\helper`, "array_map", "strlen"}, names)

	var constants []string
	for _, c := range r.GlobalConstants() {
		constants = append(constants, c.Name)
	}
	assert.Equal(t, []string{"APP_ENV", "PHP_EOL"}, constants)
}

func TestParser_ConstantValueKeepsQuotes(t *testing.T) {
	t.Parallel()

	f, err := NewTreeSitterParser().Parse("x.php", []byte(`<?php
const A = 'it\'s';
`))
	require.NoError(t, err)
	require.Len(t, f.Constants, 1)
	assert.Equal(t, `'it\'s'`, f.Constants[0].Value)
}

func TestParser_TestdataFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join("..", "..", "testdata", "code", "php", "simple.php")
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	f, err := NewTreeSitterParser().Parse(path, src)
	require.NoError(t, err)

	require.Len(t, f.Classes, 2)
	discountable, product := f.Classes[0], f.Classes[1]
	assert.Equal(t, `App\Shop\Discountable`, discountable.Name)
	assert.Equal(t, []string{`App\Contracts\Priced`}, discountable.Interfaces)
	assert.Equal(t, `App\Shop\Product`, product.Name)
	assert.Equal(t, []string{`App\Shop\Discountable`}, product.Interfaces)
	assert.Contains(t, product.DocComment, "@property-read string $sku")

	var methods []string
	for _, m := range product.Methods {
		methods = append(methods, m.Name)
	}
	assert.Equal(t, []string{"__construct", "price", "discount"}, methods)

	require.Len(t, f.Functions, 1)
	assert.Equal(t, `App\Shop\format_price`, f.Functions[0].Name)
	assert.Equal(t, "string", f.Functions[0].ReturnType)
}
