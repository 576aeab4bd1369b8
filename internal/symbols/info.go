package symbols

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/phpintel/internal/match"
	"github.com/mvp-joe/phpintel/internal/reflection"
)

// Kind tags a completion item.
type Kind string

const (
	KindFunction Kind = "f"
	KindProperty Kind = "p"
	KindConstant Kind = "d"
)

// CompletionItem is one completion candidate.
type CompletionItem struct {
	Word  string `json:"word"`
	Abbr  string `json:"abbr"`
	Kind  Kind   `json:"kind"`
	Info  string `json:"info"`
	ICase bool   `json:"icase"`
}

// StaticMode filters members by staticness.
type StaticMode string

const (
	ModeBoth      StaticMode = "both"
	ModeNonStatic StaticMode = "nonstatic"
	ModeStatic    StaticMode = "static"
)

// ParseStaticMode accepts the mode names, with empty meaning both.
func ParseStaticMode(s string) (StaticMode, error) {
	switch StaticMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBoth:
		return ModeBoth, nil
	case ModeNonStatic:
		return ModeNonStatic, nil
	case ModeStatic:
		return ModeStatic, nil
	}
	return "", fmt.Errorf("invalid static mode %q: must be both, nonstatic or static", s)
}

func (m StaticMode) allows(mods reflection.Modifier) bool {
	switch m {
	case ModeNonStatic:
		return !mods.Has(reflection.ModStatic)
	case ModeStatic:
		return mods.Has(reflection.ModStatic)
	}
	return true
}

// Info returns completions for members of class matching pattern. Without a
// class it completes free functions and global constants, and needs a
// pattern to return anything.
func (r *Resolver) Info(class, pattern string, mode StaticMode, publicOnly bool) []CompletionItem {
	items := []CompletionItem{}

	if class == "" {
		if pattern == "" {
			return items
		}
		items = append(items, r.functionItems(pattern)...)
		return append(items, r.globalConstantItems(pattern)...)
	}

	c := r.class(class)
	if c == nil {
		return items
	}

	if mode != ModeNonStatic {
		items = append(items, r.constantItems(c, pattern)...)
	}

	matches := r.matcher.Compile(pattern)
	for _, m := range r.reflector.Methods(c) {
		if !mode.allows(m.Modifiers) || (publicOnly && !m.Modifiers.IsPublic()) || !matches(m.Name) {
			continue
		}
		items = append(items, CompletionItem{
			Word:  m.Name,
			Abbr:  fmt.Sprintf("%3s %s(%s)", modifierSymbols(m.Modifiers), m.Name, m.Params),
			Kind:  KindFunction,
			Info:  CleanDoc(m.DocComment),
			ICase: true,
		})
	}

	seen := make(map[string]bool)
	for _, p := range r.reflector.Properties(c) {
		seen[p.Name] = true
		if !mode.allows(p.Modifiers) || (publicOnly && !p.Modifiers.IsPublic()) || !matches(p.Name) {
			continue
		}
		word := p.Name
		if p.Modifiers.Has(reflection.ModStatic) {
			word = "$" + word
		}
		items = append(items, CompletionItem{
			Word: word,
			Abbr: fmt.Sprintf("%3s %s", modifierSymbols(p.Modifiers), word),
			Kind: KindProperty,
			Info: CleanDoc(p.DocComment),
		})
	}

	if mode != ModeStatic {
		types := pseudoProperties(c.DocComment)
		for _, name := range pseudoPropertyNames(c.DocComment) {
			if seen[name] || !matches(name) {
				continue
			}
			items = append(items, CompletionItem{
				Word: name,
				Abbr: fmt.Sprintf("%3s %s", modifierSymbols(reflection.ModPublic), name),
				Kind: KindProperty,
				Info: "@var " + types[name],
			})
		}
	}

	return items
}

// constantItems filters with a case-sensitive prefix, independent of the
// configured match policy.
func (r *Resolver) constantItems(c *reflection.Class, pattern string) []CompletionItem {
	var items []CompletionItem
	for _, k := range r.reflector.Constants(c) {
		if !strings.HasPrefix(k.Name, pattern) {
			continue
		}
		items = append(items, CompletionItem{
			Word: k.Name,
			Abbr: fmt.Sprintf("%3s %s = %s", modifierSymbols(reflection.ModPublic|reflection.ModStatic), k.Name, constantValue(k)),
			Kind: KindConstant,
		})
	}
	return items
}

func (r *Resolver) functionItems(pattern string) []CompletionItem {
	matches := r.matcher.Compile(pattern)

	byName := make(map[string]*reflection.Function)
	var names []string
	for _, fn := range r.reflector.Functions() {
		if matches(fn.Name) {
			byName[fn.Name] = fn
			names = append(names, fn.Name)
		}
	}
	if r.matcher.Policy() == match.PolicySubsequence {
		match.Rank(pattern, names)
	}

	items := make([]CompletionItem, 0, len(names))
	for _, name := range names {
		fn := byName[name]
		items = append(items, CompletionItem{
			Word:  fn.Name,
			Abbr:  fmt.Sprintf("%s(%s)", fn.Name, fn.Params),
			Kind:  KindFunction,
			Info:  CleanDoc(fn.DocComment),
			ICase: true,
		})
	}
	return items
}

// globalConstantItems filters with a case-sensitive prefix, like class
// constants.
func (r *Resolver) globalConstantItems(pattern string) []CompletionItem {
	var items []CompletionItem
	for _, k := range r.reflector.GlobalConstants() {
		if !strings.HasPrefix(k.Name, pattern) {
			continue
		}
		items = append(items, CompletionItem{
			Word: k.Name,
			Abbr: fmt.Sprintf("%s = %s", k.Name, constantValue(k)),
			Kind: KindConstant,
		})
	}
	return items
}

func constantValue(k *reflection.Constant) string {
	if k.IsArray {
		return "[...]"
	}
	return k.Value
}

// modifierSymbols renders set modifiers as final !, private -, protected #,
// public + and static @, in that order.
func modifierSymbols(m reflection.Modifier) string {
	var b strings.Builder
	if m.Has(reflection.ModFinal) {
		b.WriteByte('!')
	}
	if m.Has(reflection.ModPrivate) {
		b.WriteByte('-')
	}
	if m.Has(reflection.ModProtected) {
		b.WriteByte('#')
	}
	if m.IsPublic() {
		b.WriteByte('+')
	}
	if m.Has(reflection.ModStatic) {
		b.WriteByte('@')
	}
	return b.String()
}
