package symbols

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/mvp-joe/phpintel/internal/reflection"
)

// Location is where a symbol is declared. Constants carry a label instead of
// a line. The zero Location means the symbol could not be found.
type Location struct {
	Path  string
	Line  int
	Label string
}

// IsZero reports whether the location is empty.
func (l Location) IsZero() bool {
	return l.Path == "" && l.Line == 0 && l.Label == ""
}

// MarshalJSON encodes the location as a [path, line] or [path, label] pair.
func (l Location) MarshalJSON() ([]byte, error) {
	if l.Label != "" {
		return json.Marshal([]interface{}{l.Path, l.Label})
	}
	if l.Line == 0 {
		return json.Marshal([]interface{}{l.Path, ""})
	}
	return json.Marshal([]interface{}{l.Path, l.Line})
}

// UnmarshalJSON decodes a [path, line] or [path, label] pair.
func (l *Location) UnmarshalJSON(data []byte) error {
	var pair []interface{}
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("location must be a pair, got %d elements", len(pair))
	}
	*l = Location{}
	l.Path, _ = pair[0].(string)
	switch v := pair[1].(type) {
	case float64:
		l.Line = int(v)
	case string:
		l.Label = v
	}
	return nil
}

// Location returns where member of class is declared. With an empty class,
// member names a free function. With an empty member, the class itself.
func (r *Resolver) Location(class, member string) Location {
	if class == "" {
		fn, err := r.reflector.Function(member)
		if err != nil || fn.Internal || fn.File == "" {
			return Location{}
		}
		return Location{Path: fn.File, Line: fn.StartLine}
	}

	c := r.class(class)
	if c == nil {
		return Location{}
	}
	if member == "" {
		return Location{Path: c.File, Line: c.StartLine}
	}

	if m, err := r.reflector.Method(c, member); err == nil {
		return Location{Path: m.File, Line: m.StartLine}
	}

	if _, err := r.reflector.Constant(c, member); err == nil {
		return r.constantLocation(c, member)
	}

	if _, err := r.reflector.Property(c, member); err == nil {
		return r.propertyLocation(c, member)
	}
	if _, ok := pseudoProperties(c.DocComment)[trimDollar(member)]; ok {
		return Location{Path: c.File, Line: c.StartLine}
	}

	return Location{}
}

// constantLocation finds the declaring class by climbing while each ancestor
// still has the constant. Interfaces are only consulted when the climb ended
// in the queried class's own file.
func (r *Resolver) constantLocation(c *reflection.Class, name string) Location {
	owner := c
	seen := map[string]bool{c.Name: true}
	for {
		parent := r.parent(owner)
		if parent == nil || seen[parent.Name] {
			break
		}
		if _, err := r.reflector.Constant(parent, name); err != nil {
			break
		}
		seen[parent.Name] = true
		owner = parent
	}

	if owner.File == c.File {
		for _, iface := range r.reflector.Interfaces(c) {
			if _, err := r.reflector.Constant(iface, name); err == nil {
				owner = iface
				break
			}
		}
	}

	return Location{Path: owner.File, Label: "const " + name}
}

// propertyLocation scans source text for the declaration, since properties
// carry no line of their own.
func (r *Resolver) propertyLocation(c *reflection.Class, name string) Location {
	pattern := regexp.MustCompile(`\b(?:private|protected|public|var)\b[^;=(]*\$` + regexp.QuoteMeta(trimDollar(name)) + `\b`)

	seen := make(map[string]bool)
	for cls := c; cls != nil && !seen[cls.Name]; cls = r.parent(cls) {
		seen[cls.Name] = true
		if line := scanFrom(cls.File, cls.StartLine, pattern); line > 0 {
			return Location{Path: cls.File, Line: line}
		}
	}

	return Location{Path: c.File, Line: c.StartLine}
}

// scanFrom returns the first line at or after start matching pattern, or 0.
func scanFrom(path string, start int, pattern *regexp.Regexp) int {
	if path == "" {
		return 0
	}
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if line < start {
			continue
		}
		if pattern.MatchString(scanner.Text()) {
			return line
		}
	}
	return 0
}

func trimDollar(name string) string {
	if len(name) > 0 && name[0] == '$' {
		return name[1:]
	}
	return name
}
