package classmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

type composerManifest struct {
	Autoload    autoloadSection `json:"autoload"`
	AutoloadDev autoloadSection `json:"autoload-dev"`
}

type autoloadSection struct {
	PSR4 map[string]stringList `json:"psr-4"`
}

// stringList accepts a JSON string or a list of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// PSR4Namespaces returns the namespaces a file at path should declare under
// the PSR-4 rules of root/composer.json, autoload-dev included. The mapping
// whose directory is the longest prefix of the file's directory wins; the
// remaining directories become namespace segments.
func PSR4Namespaces(root, path string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(root, "composer.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read composer.json: %w", err)
	}
	var manifest composerManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode composer.json: %w", err)
	}

	mappings := make(map[string][]string)
	for prefix, dirs := range manifest.Autoload.PSR4 {
		mappings[prefix] = append(mappings[prefix], dirs...)
	}
	for prefix, dirs := range manifest.AutoloadDev.PSR4 {
		mappings[prefix] = append(mappings[prefix], dirs...)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(absRoot, path)
	}
	fileDir := filepath.Clean(filepath.Dir(path))

	best := -1
	var candidates []string
	for prefix, dirs := range mappings {
		for _, dir := range dirs {
			mapped := filepath.Clean(filepath.Join(absRoot, filepath.FromSlash(dir)))
			rest, ok := within(fileDir, mapped)
			if !ok {
				continue
			}
			if len(mapped) > best {
				best = len(mapped)
				candidates = candidates[:0]
			}
			if len(mapped) == best {
				candidates = append(candidates, namespaceFor(prefix, rest))
			}
		}
	}

	sort.Strings(candidates)
	out := []string{}
	for i, ns := range candidates {
		if i == 0 || ns != candidates[i-1] {
			out = append(out, ns)
		}
	}
	return out, nil
}

// within returns the path of dir below base, split into segments.
func within(dir, base string) ([]string, bool) {
	if dir == base {
		return nil, true
	}
	rel, err := filepath.Rel(base, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, false
	}
	return strings.Split(filepath.ToSlash(rel), "/"), true
}

func namespaceFor(prefix string, segments []string) string {
	parts := []string{}
	if p := strings.Trim(prefix, `\`); p != "" {
		parts = append(parts, p)
	}
	for _, s := range segments {
		if s != "" {
			parts = append(parts, upperFirst(s))
		}
	}
	return strings.Join(parts, `\`)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
