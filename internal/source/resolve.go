package source

import (
	"strings"
)

// Separator is the PHP namespace separator.
const Separator = `\`

// builtinTypes carry no navigable location and are dropped by Resolve.
var builtinTypes = map[string]bool{
	"array":    true,
	"bool":     true,
	"boolean":  true,
	"callable": true,
	"double":   true,
	"false":    true,
	"float":    true,
	"int":      true,
	"integer":  true,
	"iterable": true,
	"mixed":    true,
	"never":    true,
	"null":     true,
	"object":   true,
	"resource": true,
	"scalar":   true,
	"string":   true,
	"true":     true,
	"void":     true,
}

// IsBuiltinType reports whether name is a primitive or pseudo type.
func IsBuiltinType(name string) bool {
	return builtinTypes[strings.ToLower(name)]
}

// IsSelfType reports whether name refers to the enclosing class.
func IsSelfType(name string) bool {
	switch strings.ToLower(name) {
	case "self", "static", "$this":
		return true
	}
	return false
}

// SplitUnion splits a pipe-delimited union type into its members.
func SplitUnion(types string) []string {
	var out []string
	for _, t := range strings.Split(types, "|") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Resolver turns raw type tokens into fully-qualified names.
type Resolver struct {
	extractor Extractor
}

// NewResolver creates a resolver backed by the given extractor.
// A nil extractor means LineExtractor.
func NewResolver(extractor Extractor) *Resolver {
	if extractor == nil {
		extractor = LineExtractor{}
	}
	return &Resolver{extractor: extractor}
}

// Extract exposes the resolver's extractor.
func (r *Resolver) Extract(path string) *Facts {
	return r.extractor.Extract(path)
}

// Resolve qualifies every type in types as seen from the file at path.
// Builtin types are dropped, every result is rooted with a leading separator
// and duplicates are removed keeping the first occurrence.
func (r *Resolver) Resolve(path string, types []string) []string {
	var facts *Facts
	seen := make(map[string]bool)
	resolved := []string{}

	for _, raw := range types {
		t := normalizeTypeToken(raw)
		if t == "" || IsBuiltinType(t) {
			continue
		}

		if !strings.HasPrefix(t, Separator) {
			if facts == nil {
				facts = r.extractor.Extract(path)
			}
			if IsSelfType(t) {
				if facts.Class == "" {
					continue
				}
				t = joinName(facts.Namespace, facts.Class)
			} else {
				t = Qualify(t, facts)
			}
		}

		if !strings.HasPrefix(t, Separator) {
			t = Separator + t
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		resolved = append(resolved, t)
	}

	return resolved
}

// Qualify applies the import table and namespace of facts to a single
// unrooted class name. Rooted names are returned unchanged. The result has no
// leading separator unless name had one.
func Qualify(name string, facts *Facts) string {
	if name == "" || strings.HasPrefix(name, Separator) {
		return name
	}

	head, rest, nested := strings.Cut(name, Separator)
	if fqn, ok := facts.Imports[head]; ok && head != SyntheticImport && fqn != "" {
		if nested {
			return fqn + Separator + rest
		}
		return fqn
	}

	return joinName(facts.Namespace, name)
}

// normalizeTypeToken strips nullable and array markers from a type token.
func normalizeTypeToken(raw string) string {
	t := strings.TrimSpace(raw)
	t = strings.TrimPrefix(t, "?")
	for strings.HasSuffix(t, "[]") {
		t = strings.TrimSuffix(t, "[]")
	}
	return strings.TrimSpace(t)
}

func joinName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + Separator + name
}
