// Package symbols answers editor queries about PHP symbols: where they are
// declared, what their documentation says, which types they return and which
// completions match a typed prefix. Every lookup that fails degrades to an
// empty result; nothing here reports "not found" as an error.
package symbols

import (
	"github.com/mvp-joe/phpintel/internal/match"
	"github.com/mvp-joe/phpintel/internal/reflection"
	"github.com/mvp-joe/phpintel/internal/source"
)

// Resolver combines reflection, type resolution and matching.
type Resolver struct {
	reflector reflection.Reflector
	types     *source.Resolver
	matcher   match.Matcher
}

// NewResolver creates a resolver. A nil types resolver uses the line
// extractor; a nil matcher uses head matching.
func NewResolver(reflector reflection.Reflector, types *source.Resolver, matcher match.Matcher) *Resolver {
	if types == nil {
		types = source.NewResolver(nil)
	}
	if matcher == nil {
		matcher, _ = match.New(string(match.PolicyHead))
	}
	return &Resolver{
		reflector: reflector,
		types:     types,
		matcher:   matcher,
	}
}

// class looks up a class, treating every failure as absent.
func (r *Resolver) class(name string) *reflection.Class {
	if name == "" {
		return nil
	}
	c, err := r.reflector.Class(name)
	if err != nil {
		return nil
	}
	return c
}

func (r *Resolver) parent(c *reflection.Class) *reflection.Class {
	p, err := r.reflector.Parent(c)
	if err != nil {
		return nil
	}
	return p
}
