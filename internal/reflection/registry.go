package reflection

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/maypok86/otter"
)

// DefaultCacheSize is the number of parsed files kept by a Registry.
const DefaultCacheSize = 512

// Parser turns PHP source into declarations.
type Parser interface {
	Parse(path string, src []byte) (*File, error)
}

// Registry is a Reflector over parsed source files. Classes listed in the
// class map are loaded on first use and re-validated against the file's
// content hash on every lookup, so edits are picked up without a restart.
type Registry struct {
	mu        sync.Mutex
	parser    Parser
	cache     otter.Cache[string, *File]
	classMap  map[string]string    // lower-case class name -> file path
	classes   map[string]*Class    // lower-case class name
	functions map[string]*Function // lower-case function name
	constants map[string]*Constant
	loaded    map[string]*File // path -> declarations currently registered
	builtins  *Builtins
}

// Option configures a Registry.
type Option func(*registryOptions)

type registryOptions struct {
	cacheSize int
	classMap  map[string]string
	builtins  *Builtins
}

// WithCacheSize sets the parsed-file cache capacity.
func WithCacheSize(n int) Option {
	return func(o *registryOptions) { o.cacheSize = n }
}

// WithClassMap sets the class name -> file path map used for lazy loading.
func WithClassMap(classMap map[string]string) Option {
	return func(o *registryOptions) { o.classMap = classMap }
}

// WithBuiltins adds the interpreter's internal functions and constants.
func WithBuiltins(b *Builtins) Option {
	return func(o *registryOptions) { o.builtins = b }
}

// NewRegistry creates a registry. parser may be nil for registries populated
// only through Define.
func NewRegistry(parser Parser, opts ...Option) (*Registry, error) {
	o := registryOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheSize <= 0 {
		o.cacheSize = DefaultCacheSize
	}

	cache, err := otter.MustBuilder[string, *File](o.cacheSize).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create file cache: %w", err)
	}

	r := &Registry{
		parser:    parser,
		cache:     cache,
		classes:   make(map[string]*Class),
		functions: make(map[string]*Function),
		constants: make(map[string]*Constant),
		loaded:    make(map[string]*File),
		builtins:  o.builtins,
	}
	r.SetClassMap(o.classMap)
	return r, nil
}

// Close releases the file cache.
func (r *Registry) Close() {
	r.cache.Close()
}

// SetClassMap replaces the class map.
func (r *Registry) SetClassMap(classMap map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classMap = make(map[string]string, len(classMap))
	for name, path := range classMap {
		r.classMap[key(name)] = path
	}
}

// AddClassMapEntry adds or replaces a single class map entry.
func (r *Registry) AddClassMapEntry(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classMap[key(name)] = path
}

// Define registers classes directly.
func (r *Registry) Define(classes ...*Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range classes {
		r.defineClass(c)
	}
}

// DefineFunctions registers free functions directly.
func (r *Registry) DefineFunctions(functions ...*Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fn := range functions {
		r.functions[key(fn.Name)] = fn
	}
}

// DefineConstants registers global constants directly.
func (r *Registry) DefineConstants(constants ...*Constant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range constants {
		r.constants[c.Name] = c
	}
}

// Load parses path and registers its declarations.
func (r *Registry) Load(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(path)
}

func (r *Registry) loadLocked(path string) error {
	if r.parser == nil {
		return fmt.Errorf("failed to load %s: registry has no parser", path)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	hash := xxhash.Sum64(src)

	if f, ok := r.cache.Get(path); ok && f.Hash == hash {
		if r.loaded[path] != f {
			r.register(f)
		}
		return nil
	}

	f, err := r.parser.Parse(path, src)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	f.Path = path
	f.Hash = hash
	r.cache.Set(path, f)
	r.register(f)
	return nil
}

// register replaces whatever a previous version of the same file declared.
func (r *Registry) register(f *File) {
	if old := r.loaded[f.Path]; old != nil {
		for _, c := range old.Classes {
			if cur := r.classes[key(c.Name)]; cur == c {
				delete(r.classes, key(c.Name))
			}
		}
		for _, fn := range old.Functions {
			if cur := r.functions[key(fn.Name)]; cur == fn {
				delete(r.functions, key(fn.Name))
			}
		}
		for _, c := range old.Constants {
			if cur := r.constants[c.Name]; cur == c {
				delete(r.constants, c.Name)
			}
		}
	}

	for _, c := range f.Classes {
		r.defineClass(c)
	}
	for _, fn := range f.Functions {
		r.functions[key(fn.Name)] = fn
	}
	for _, c := range f.Constants {
		r.constants[c.Name] = c
	}
	r.loaded[f.Path] = f
}

func (r *Registry) defineClass(c *Class) {
	for _, m := range c.Methods {
		if m.Class == "" {
			m.Class = c.Name
		}
		if m.File == "" {
			m.File = c.File
		}
	}
	for _, p := range c.Properties {
		if p.Class == "" {
			p.Class = c.Name
		}
	}
	for _, k := range c.Constants {
		if k.Class == "" {
			k.Class = c.Name
		}
	}
	r.classes[key(c.Name)] = c
}

// Class implements Reflector.
func (r *Registry) Class(name string) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.classLocked(name)
}

func (r *Registry) classLocked(name string) (*Class, error) {
	k := key(name)
	if k == "" {
		return nil, fmt.Errorf("class %q: %w", name, ErrNotFound)
	}
	if path, ok := r.classMap[k]; ok {
		if err := r.loadLocked(path); err != nil {
			return nil, fmt.Errorf("class %q: %w", name, ErrNotFound)
		}
	}
	if c, ok := r.classes[k]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("class %q: %w", name, ErrNotFound)
}

// Parent implements Reflector.
func (r *Registry) Parent(c *Class) (*Class, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Parent == "" {
		return nil, fmt.Errorf("parent of %q: %w", c.Name, ErrNotFound)
	}
	return r.classLocked(c.Parent)
}

// chain returns c followed by its loadable ancestors.
func (r *Registry) chain(c *Class) []*Class {
	chain := []*Class{c}
	seen := map[string]bool{key(c.Name): true}
	for cur := c; cur.Parent != ""; {
		parent, err := r.classLocked(cur.Parent)
		if err != nil || seen[key(parent.Name)] {
			break
		}
		seen[key(parent.Name)] = true
		chain = append(chain, parent)
		cur = parent
	}
	return chain
}

// traits returns the traits used by c, including traits used by traits.
func (r *Registry) traits(c *Class) []*Class {
	var out []*Class
	seen := make(map[string]bool)
	var visit func(names []string)
	visit = func(names []string) {
		for _, name := range names {
			if seen[key(name)] {
				continue
			}
			seen[key(name)] = true
			t, err := r.classLocked(name)
			if err != nil {
				continue
			}
			out = append(out, t)
			visit(t.Traits)
		}
	}
	visit(c.Traits)
	return out
}

// InterfaceNames implements Reflector.
func (r *Registry) InterfaceNames(c *Class) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interfaceNames(c)
}

func (r *Registry) interfaceNames(c *Class) []string {
	names := []string{}
	seen := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		name = strings.TrimPrefix(name, `\`)
		if seen[key(name)] {
			return
		}
		seen[key(name)] = true
		if iface, err := r.classLocked(name); err == nil {
			names = append(names, iface.Name)
			for _, parent := range iface.Interfaces {
				visit(parent)
			}
			return
		}
		names = append(names, name)
	}
	for _, cls := range r.chain(c) {
		for _, name := range cls.Interfaces {
			visit(name)
		}
	}
	return names
}

// Interfaces implements Reflector.
func (r *Registry) Interfaces(c *Class) []*Class {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interfaces(c)
}

func (r *Registry) interfaces(c *Class) []*Class {
	var out []*Class
	for _, name := range r.interfaceNames(c) {
		if iface, err := r.classLocked(name); err == nil {
			out = append(out, iface)
		}
	}
	return out
}

// Method implements Reflector.
func (r *Registry) Method(c *Class, name string) (*Method, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.methods(c) {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("method %s::%s: %w", c.Name, name, ErrNotFound)
}

// Methods implements Reflector.
func (r *Registry) Methods(c *Class) []*Method {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.methods(c)
}

func (r *Registry) methods(c *Class) []*Method {
	var out []*Method
	seen := make(map[string]bool)
	add := func(methods []*Method) {
		for _, m := range methods {
			if seen[key(m.Name)] {
				continue
			}
			seen[key(m.Name)] = true
			out = append(out, m)
		}
	}
	for _, cls := range r.chain(c) {
		add(cls.Methods)
		for _, t := range r.traits(cls) {
			add(t.Methods)
		}
	}
	for _, iface := range r.interfaces(c) {
		add(iface.Methods)
	}
	return out
}

// Property implements Reflector.
func (r *Registry) Property(c *Class, name string) (*Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name = strings.TrimPrefix(name, "$")
	for _, p := range r.properties(c) {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("property %s::$%s: %w", c.Name, name, ErrNotFound)
}

// Properties implements Reflector.
func (r *Registry) Properties(c *Class) []*Property {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.properties(c)
}

// properties skips private properties of ancestors, which are not visible
// on c.
func (r *Registry) properties(c *Class) []*Property {
	var out []*Property
	seen := make(map[string]bool)
	for i, cls := range r.chain(c) {
		groups := [][]*Property{cls.Properties}
		for _, t := range r.traits(cls) {
			groups = append(groups, t.Properties)
		}
		for _, props := range groups {
			for _, p := range props {
				if seen[p.Name] || (i > 0 && p.Modifiers.Has(ModPrivate)) {
					continue
				}
				seen[p.Name] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Constant implements Reflector.
func (r *Registry) Constant(c *Class, name string) (*Constant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.constantsOf(c) {
		if k.Name == name {
			return k, nil
		}
	}
	return nil, fmt.Errorf("constant %s::%s: %w", c.Name, name, ErrNotFound)
}

// Constants implements Reflector.
func (r *Registry) Constants(c *Class) []*Constant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.constantsOf(c)
}

func (r *Registry) constantsOf(c *Class) []*Constant {
	var out []*Constant
	seen := make(map[string]bool)
	add := func(constants []*Constant) {
		for _, k := range constants {
			if seen[k.Name] {
				continue
			}
			seen[k.Name] = true
			out = append(out, k)
		}
	}
	for _, cls := range r.chain(c) {
		add(cls.Constants)
	}
	for _, iface := range r.interfaces(c) {
		add(iface.Constants)
	}
	return out
}

// Function implements Reflector.
func (r *Registry) Function(name string) (*Function, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fn, ok := r.functions[key(name)]; ok {
		return fn, nil
	}
	if r.builtins != nil {
		if fn := r.builtins.function(name); fn != nil {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("function %q: %w", name, ErrNotFound)
}

// Functions implements Reflector.
func (r *Registry) Functions() []*Function {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Function, 0, len(r.functions))
	seen := make(map[string]bool, len(r.functions))
	for k, fn := range r.functions {
		seen[k] = true
		out = append(out, fn)
	}
	if r.builtins != nil {
		for _, name := range r.builtins.Functions {
			if !seen[key(name)] {
				out = append(out, &Function{Name: name, Internal: true})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GlobalConstants implements Reflector.
func (r *Registry) GlobalConstants() []*Constant {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Constant, 0, len(r.constants))
	for _, c := range r.constants {
		out = append(out, c)
	}
	if r.builtins != nil {
		for name, value := range r.builtins.Constants {
			if _, ok := r.constants[name]; !ok {
				out = append(out, &Constant{Name: name, Value: value})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func key(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), `\`))
}
