package hierarchy

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/phpintel/internal/reflection"
)

// Indexer records classes in the reverse index.
type Indexer struct {
	reflector reflection.Reflector
	store     *Store
}

// NewIndexer creates an indexer writing to store.
func NewIndexer(reflector reflection.Reflector, store *Store) *Indexer {
	return &Indexer{
		reflector: reflector,
		store:     store,
	}
}

// Update appends class to its direct parent's subclass list, keyed by the
// parent's declared name when it can be reflected, and to the
// implementor list of every interface it declares, together with the
// interfaces those extend. Interfaces reached only through the parent are
// left to the parent's own entry. Calling it again changes nothing.
func (i *Indexer) Update(class string) error {
	c, err := i.reflector.Class(class)
	if err != nil {
		return fmt.Errorf("failed to reflect %s: %w", class, err)
	}

	if c.Parent != "" {
		// The declared spelling may differ in case from the declaration.
		parent := c.Parent
		if p, err := i.reflector.Parent(c); err == nil {
			parent = p.Name
		}
		if err := i.store.Append(Extends, parent, c.Name); err != nil {
			return err
		}
	}

	for _, iface := range i.interfaceSet(c) {
		if err := i.store.Append(Interfaces, iface, c.Name); err != nil {
			return err
		}
	}
	return nil
}

// interfaceSet closes the declared interfaces of c over interface
// inheritance. Names that cannot be reflected are kept.
func (i *Indexer) interfaceSet(c *reflection.Class) []string {
	var names []string
	seen := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		name = strings.TrimPrefix(name, `\`)
		if seen[strings.ToLower(name)] {
			return
		}
		seen[strings.ToLower(name)] = true
		iface, err := i.reflector.Class(name)
		if err != nil {
			names = append(names, name)
			return
		}
		names = append(names, iface.Name)
		for _, parent := range iface.Interfaces {
			visit(parent)
		}
	}
	for _, name := range c.Interfaces {
		visit(name)
	}
	return names
}

// Store returns the index the indexer writes to.
func (i *Indexer) Store() *Store {
	return i.store
}
