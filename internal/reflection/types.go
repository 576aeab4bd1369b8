// Package reflection answers structural questions about PHP classes and
// functions: parents, interfaces, members, doc comments and declaring
// locations. It builds that knowledge by parsing source files with
// tree-sitter instead of running a PHP interpreter.
package reflection

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a class, function or member is unknown.
var ErrNotFound = errors.New("not found")

// Kind distinguishes type declarations.
type Kind string

const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindTrait     Kind = "trait"
	KindEnum      Kind = "enum"
)

// Modifier is a bit set of declaration modifiers.
type Modifier uint16

const (
	ModFinal Modifier = 1 << iota
	ModAbstract
	ModPrivate
	ModProtected
	ModPublic
	ModStatic
	ModReadonly
)

// Has reports whether all bits of m2 are set.
func (m Modifier) Has(m2 Modifier) bool { return m&m2 == m2 }

// IsPublic reports whether the member is visible from outside. Members without
// an explicit visibility are public.
func (m Modifier) IsPublic() bool {
	return m.Has(ModPublic) || (!m.Has(ModPrivate) && !m.Has(ModProtected))
}

// Class describes a class, interface, trait or enum declaration.
// Names are fully qualified without a leading separator.
type Class struct {
	Name       string
	Kind       Kind
	Modifiers  Modifier
	Parent     string
	Interfaces []string // implemented interfaces, or extended ones for an interface
	Traits     []string
	DocComment string
	File       string
	StartLine  int
	Methods    []*Method
	Properties []*Property
	Constants  []*Constant
}

// IsInterface reports whether c is an interface.
func (c *Class) IsInterface() bool { return c.Kind == KindInterface }

// ShortName returns the last segment of the class name.
func (c *Class) ShortName() string {
	if i := strings.LastIndex(c.Name, `\`); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

func (c *Class) ownMethod(name string) *Method {
	for _, m := range c.Methods {
		if strings.EqualFold(m.Name, name) {
			return m
		}
	}
	return nil
}

func (c *Class) ownProperty(name string) *Property {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (c *Class) ownConstant(name string) *Constant {
	for _, k := range c.Constants {
		if k.Name == name {
			return k
		}
	}
	return nil
}

// Method is a method declaration. Class and File name the declaring class.
type Method struct {
	Name       string
	Class      string
	File       string
	Modifiers  Modifier
	Params     string // parameter list source without parentheses
	ReturnType string // declared return type, class names qualified
	DocComment string
	StartLine  int
}

// Property is a property declaration. Reflection does not report a line for
// properties; callers locate them in source.
type Property struct {
	Name       string // without the leading $
	Class      string
	Modifiers  Modifier
	Type       string // declared type, class names qualified
	DocComment string
}

// Constant is a class or global constant.
type Constant struct {
	Name    string
	Class   string // empty for global constants
	Value   string // value source text
	IsArray bool
}

// Function is a free function. Internal functions have no file.
type Function struct {
	Name       string
	File       string
	Params     string
	ReturnType string
	DocComment string
	StartLine  int
	Internal   bool
}

// File is everything a source file declares.
type File struct {
	Path      string
	Hash      uint64
	Classes   []*Class
	Functions []*Function
	Constants []*Constant
}

// Reflector is the reflection capability the resolvers and indexer consume.
// Every lookup that fails returns ErrNotFound.
type Reflector interface {
	// Class returns the named class. A leading separator is ignored and
	// lookups are case-insensitive like PHP.
	Class(name string) (*Class, error)

	// Parent returns the parent class of c.
	Parent(c *Class) (*Class, error)

	// InterfaceNames returns the full interface set of c including interfaces
	// inherited from parents and from other interfaces. Names of interfaces
	// that cannot be loaded are still reported.
	InterfaceNames(c *Class) []string

	// Interfaces returns the loadable members of InterfaceNames.
	Interfaces(c *Class) []*Class

	// Method finds a method on c, its traits, its ancestors or its interfaces.
	Method(c *Class, name string) (*Method, error)

	// Methods lists every method visible on c, own methods first.
	Methods(c *Class) []*Method

	// Property finds a property on c, its traits or its ancestors.
	Property(c *Class, name string) (*Property, error)

	// Properties lists every property visible on c.
	Properties(c *Class) []*Property

	// Constant finds a constant on c, its ancestors or its interfaces.
	Constant(c *Class, name string) (*Constant, error)

	// Constants lists every constant visible on c.
	Constants(c *Class) []*Constant

	// Function returns a free function by name.
	Function(name string) (*Function, error)

	// Functions lists every known function, builtin and user defined.
	Functions() []*Function

	// GlobalConstants lists every known global constant.
	GlobalConstants() []*Constant

	// Load parses a source file and makes its declarations available.
	Load(path string) error
}
