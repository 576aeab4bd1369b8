package source

import (
	"bufio"
	"os"
	"path"
	"regexp"
	"strings"
)

// SyntheticImport is always present in Facts.Imports so that an import table
// never serializes as an empty object that some RPC encodings confuse with an
// empty list.
const SyntheticImport = "@"

// Facts describes the namespace context of one source file.
type Facts struct {
	Namespace string            `json:"namespace"`
	Class     string            `json:"class"`
	Imports   map[string]string `json:"imports"`
}

// NewFacts returns an empty Facts carrying the synthetic import entry.
func NewFacts() *Facts {
	return &Facts{
		Imports: map[string]string{SyntheticImport: ""},
	}
}

// Known reports whether the facts describe a real declaration. An empty
// namespace together with an empty class means the file could not be read or
// declares nothing, which is not the same as the global namespace.
func (f *Facts) Known() bool {
	return f.Namespace != "" || f.Class != ""
}

// Extractor produces namespace facts for a source file.
type Extractor interface {
	Extract(path string) *Facts
}

// LineExtractor scans a file line by line. It does not understand nested
// braces or several statements on one line; a type declaration ends the scan.
type LineExtractor struct{}

var (
	classDeclPattern = regexp.MustCompile(`(?i)^\s*\b(?:(?:(?:final|abstract|readonly)\s+)*class|interface|trait|enum)\s+([A-Za-z_\x80-\xff][\w\x80-\xff]*)`)
	namespacePattern = regexp.MustCompile(`^namespace\s+([\\\w]+)\s*[;{]`)
	usePattern       = regexp.MustCompile(`^use\s+(?:(function|const|constant)\s+)?(?:([\\\w]+\\)\s*\{([^}]*)\}|([^;{}]+))\s*;$`)
	useItemPattern   = regexp.MustCompile(`^\\?([\w\\]+?)(?:\s+as\s+(\w+))?$`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// Extract reads the file at path. A missing or unreadable file yields empty facts.
func (LineExtractor) Extract(path string) *Facts {
	facts := NewFacts()

	f, err := os.Open(path)
	if err != nil {
		return facts
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := classDeclPattern.FindStringSubmatch(line); m != nil {
			facts.Class = m[1]
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := namespacePattern.FindStringSubmatch(line); m != nil {
			facts.Namespace = strings.Trim(m[1], `\`)
			continue
		}

		if kind, imports, ok := ParseUse(line); ok && kind == "" {
			for alias, fqn := range imports {
				facts.Imports[alias] = fqn
			}
		}
	}

	return facts
}

// ParseUse parses one `use` statement. kind is "function" or "const" for
// function and constant imports, empty for class imports. ok is false when the
// statement is not a use statement.
func ParseUse(stmt string) (kind string, imports map[string]string, ok bool) {
	stmt = spacePattern.ReplaceAllString(strings.TrimSpace(stmt), " ")
	m := usePattern.FindStringSubmatch(stmt)
	if m == nil {
		return "", nil, false
	}

	kind = m[1]
	if kind == "constant" {
		kind = "const"
	}

	prefix := strings.TrimPrefix(m[2], `\`)
	list := m[4]
	if m[3] != "" || m[2] != "" {
		list = m[3]
	}

	imports = make(map[string]string)
	for _, item := range strings.Split(list, ",") {
		im := useItemPattern.FindStringSubmatch(strings.TrimSpace(item))
		if im == nil {
			continue
		}
		fqn := prefix + im[1]
		alias := im[2]
		if alias == "" {
			alias = path.Base(strings.ReplaceAll(fqn, `\`, "/"))
		}
		imports[alias] = fqn
	}

	return kind, imports, true
}
