package classpath

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
)

// ErrNotFound is wrapped by a ResolveError when the class or method does not
// exist.
var ErrNotFound = errors.New("not found")

// ResolveError reports a method that could not be resolved. It is fatal to a
// run, never a verdict.
type ResolveError struct {
	Ref bytecode.MethodRef
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("classpath: resolve %s: %v", e.Ref, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Table is a method table. Every Table is a vm.Resolver.
type Table interface {
	Resolve(ref bytecode.MethodRef) (*bytecode.Method, error)
	Class(name string) (*bytecode.Class, error)
}

// Lookup resolves a method identifier against t.
func Lookup(t Table, id MethodID) (*bytecode.Method, error) {
	return t.Resolve(id.Ref())
}

// findIn looks ref up in cls by name and parameter types.
func findIn(cls *bytecode.Class, ref bytecode.MethodRef) (*bytecode.Method, error) {
	m := cls.FindMethod(ref.Name, ref.Params)
	if m == nil {
		return nil, &ResolveError{Ref: ref, Err: fmt.Errorf("method %w in %s", ErrNotFound, cls.Name)}
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Static: an in-memory table
// ---------------------------------------------------------------------------

// Static is a Table over classes registered in memory.
type Static struct {
	mu      sync.RWMutex
	classes map[string]*bytecode.Class
}

// NewStatic creates a table holding classes.
func NewStatic(classes ...*bytecode.Class) *Static {
	s := &Static{classes: make(map[string]*bytecode.Class)}
	for _, c := range classes {
		s.Add(c)
	}
	return s
}

// Add registers a class, replacing any class of the same name.
func (s *Static) Add(c *bytecode.Class) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[c.Name] = c
}

// AddMethod registers m under its class, creating the class if needed.
func (s *Static) AddMethod(m *bytecode.Method) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[m.Class]
	if !ok {
		c = &bytecode.Class{Name: m.Class}
		s.classes[m.Class] = c
	}
	c.Methods = append(c.Methods, m)
}

func (s *Static) Class(name string) (*bytecode.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.classes[name]
	if !ok {
		return nil, fmt.Errorf("classpath: class %s: %w", name, ErrNotFound)
	}
	return c, nil
}

func (s *Static) Resolve(ref bytecode.MethodRef) (*bytecode.Method, error) {
	c, err := s.Class(ref.Class)
	if err != nil {
		return nil, &ResolveError{Ref: ref, Err: err}
	}
	return findIn(c, ref)
}
