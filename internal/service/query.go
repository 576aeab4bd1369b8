package service

import (
	"github.com/mvp-joe/phpintel/internal/classmap"
	"github.com/mvp-joe/phpintel/internal/source"
	"github.com/mvp-joe/phpintel/internal/symbols"
)

// Info returns completion candidates. mode is "both", "nonstatic" or
// "static"; empty means both.
func (s *Service) Info(class, pattern, mode string, publicOnly bool) ([]symbols.CompletionItem, error) {
	m, err := symbols.ParseStaticMode(mode)
	if err != nil {
		return nil, err
	}
	return s.symbols.Info(class, pattern, m, publicOnly), nil
}

// Location returns where member of class is declared. An empty class
// locates a free function.
func (s *Service) Location(class, member string) symbols.Location {
	return s.symbols.Location(class, member)
}

// NsUse returns the namespace, declared class and imports of a file.
func (s *Service) NsUse(path string) *source.Facts {
	return s.types.Extract(path)
}

// FuncType returns the resolved return types of a method or function.
func (s *Service) FuncType(class, name string) []string {
	return s.symbols.FuncType(class, name)
}

// PropType returns the resolved types of a property.
func (s *Service) PropType(class, name string) []string {
	return s.symbols.PropType(class, name)
}

// Doc returns the documentation of a member and the file its types resolve against.
func (s *Service) Doc(class, name string, isMethod bool) (path, doc string) {
	return s.symbols.Doc(class, name, isMethod)
}

// Psr4Ns returns the PSR-4 namespaces a file's directory maps to.
func (s *Service) Psr4Ns(path string) ([]string, error) {
	return classmap.PSR4Namespaces(s.root, path)
}

// Update records one class in the hierarchy index.
func (s *Service) Update(class string) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	return s.indexer.Update(class)
}

// Ls returns the direct implementors of an interface or subclasses of a class.
func (s *Service) Ls(name string, isInterface bool) []string {
	return s.store.Ls(name, isInterface)
}

// Descendants returns every transitive implementor or subclass.
func (s *Service) Descendants(name string, isInterface bool) ([]string, error) {
	return s.store.Descendants(name, isInterface)
}
