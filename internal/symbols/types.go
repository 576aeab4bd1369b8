package symbols

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/phpintel/internal/reflection"
	"github.com/mvp-joe/phpintel/internal/source"
)

// FuncType returns the resolved return types of a method, or of a free
// function when class is empty. The declared return type wins over @return.
func (r *Resolver) FuncType(class, name string) []string {
	if class == "" {
		fn, err := r.reflector.Function(name)
		if err != nil {
			return []string{}
		}
		if fn.ReturnType != "" {
			return r.types.Resolve(fn.File, source.SplitUnion(fn.ReturnType))
		}
		return r.annotated(fn.File, CleanDoc(fn.DocComment), returnPattern)
	}

	c := r.class(class)
	if c == nil {
		return []string{}
	}
	m, err := r.reflector.Method(c, name)
	if err != nil {
		return []string{}
	}
	if m.ReturnType != "" {
		return r.native(c, m.ReturnType)
	}

	path, doc := r.Doc(class, name, true)
	return r.annotated(path, doc, returnPattern)
}

// PropType returns the resolved types of a property. The declared type wins
// over @var.
func (r *Resolver) PropType(class, name string) []string {
	c := r.class(class)
	if c == nil {
		return []string{}
	}
	if p, err := r.reflector.Property(c, trimDollar(name)); err == nil && p.Type != "" {
		return r.native(c, p.Type)
	}

	path, doc := r.Doc(class, name, false)
	return r.annotated(path, doc, varPattern)
}

// native resolves a declared type. Class names in declared types are already
// rooted, so only self, static and parent need the queried class. A parent
// type on a class without one is dropped.
func (r *Resolver) native(c *reflection.Class, declared string) []string {
	var types []string
	for _, t := range source.SplitUnion(declared) {
		switch {
		case source.IsSelfType(t):
			t = source.Separator + c.Name
		case strings.EqualFold(t, "parent"):
			parent := r.parent(c)
			if parent == nil {
				continue
			}
			t = source.Separator + parent.Name
		}
		types = append(types, t)
	}
	return r.types.Resolve(c.File, types)
}

func (r *Resolver) annotated(path, doc string, pattern *regexp.Regexp) []string {
	m := pattern.FindStringSubmatch(doc)
	if m == nil {
		return []string{}
	}
	return r.types.Resolve(path, source.SplitUnion(m[1]))
}
