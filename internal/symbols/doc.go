package symbols

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/phpintel/internal/reflection"
)

var (
	inheritDocPattern = regexp.MustCompile(`(?i)^(?:\{@inheritdoc\}|@inheritdoc)$`)
	staticTypePattern = regexp.MustCompile(`@(?:return|var)\s+static\b`)
	pseudoPattern     = regexp.MustCompile(`@property(?:-read|-write)?\s+(\S+)\s+\$(\w+)`)
	returnPattern     = regexp.MustCompile(`@return\s+(\S+)`)
	varPattern        = regexp.MustCompile(`@var\s+(\S+)`)
)

// Doc returns the documentation of a member and the file it should be read
// against. isMethod selects between methods and properties. With an empty
// class, name is a free function; with an empty name, the class itself.
func (r *Resolver) Doc(class, name string, isMethod bool) (path, doc string) {
	if class == "" {
		fn, err := r.reflector.Function(name)
		if err != nil {
			return "", ""
		}
		return fn.File, CleanDoc(fn.DocComment)
	}

	c := r.class(class)
	if c == nil {
		return "", ""
	}
	if name == "" {
		return c.File, CleanDoc(c.DocComment)
	}

	if isMethod {
		return r.methodDoc(c, name)
	}
	return r.propertyDoc(c, name)
}

func (r *Resolver) methodDoc(c *reflection.Class, name string) (string, string) {
	m, err := r.reflector.Method(c, name)
	if err != nil {
		return "", ""
	}
	m = r.inheritedMethod(m)

	doc := CleanDoc(m.DocComment)
	if staticTypePattern.MatchString(doc) {
		return c.File, doc
	}
	return m.File, doc
}

// inheritedMethod follows inherit markers: an interface declaring the same
// method wins immediately, otherwise the parent's method is tried again.
func (r *Resolver) inheritedMethod(m *reflection.Method) *reflection.Method {
	seen := make(map[string]bool)
	for isInheritDoc(m.DocComment) && !seen[m.Class] {
		seen[m.Class] = true

		decl := r.class(m.Class)
		if decl == nil {
			break
		}
		for _, iface := range r.reflector.Interfaces(decl) {
			if im, err := r.reflector.Method(iface, m.Name); err == nil {
				return im
			}
		}

		parent := r.parent(decl)
		if parent == nil {
			break
		}
		pm, err := r.reflector.Method(parent, m.Name)
		if err != nil {
			break
		}
		m = pm
	}
	return m
}

func (r *Resolver) propertyDoc(c *reflection.Class, name string) (string, string) {
	name = trimDollar(name)

	p, err := r.reflector.Property(c, name)
	if err != nil {
		if typ, ok := pseudoProperties(c.DocComment)[name]; ok {
			return c.File, "@var " + typ
		}
		return "", ""
	}

	doc := CleanDoc(p.DocComment)
	if staticTypePattern.MatchString(doc) {
		return c.File, doc
	}
	if decl := r.class(p.Class); decl != nil {
		return decl.File, doc
	}
	return c.File, doc
}

func isInheritDoc(comment string) bool {
	return inheritDocPattern.MatchString(CleanDoc(comment))
}

// pseudoProperties maps names to types of @property annotations.
func pseudoProperties(comment string) map[string]string {
	props := make(map[string]string)
	for _, m := range pseudoPattern.FindAllStringSubmatch(comment, -1) {
		if _, ok := props[m[2]]; !ok {
			props[m[2]] = m[1]
		}
	}
	return props
}

// pseudoPropertyNames lists @property annotations in declaration order.
func pseudoPropertyNames(comment string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range pseudoPattern.FindAllStringSubmatch(comment, -1) {
		if !seen[m[2]] {
			seen[m[2]] = true
			names = append(names, m[2])
		}
	}
	return names
}

// CleanDoc strips comment delimiters and leading asterisks from a doc comment.
func CleanDoc(comment string) string {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return ""
	}
	comment = strings.TrimPrefix(comment, "/**")
	comment = strings.TrimSuffix(comment, "*/")

	lines := strings.Split(comment, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		line = strings.TrimPrefix(line, "*")
		out = append(out, strings.TrimPrefix(line, " "))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
