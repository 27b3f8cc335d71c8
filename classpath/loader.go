package classpath

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
)

var log = commonlog.GetLogger("oracle.classpath")

// Loader is a Table over a directory of decompiled jvm2json class documents,
// one file per class at <root>/<class/path>.json. Decoded classes are kept in
// memory, and in the CBOR cache when one is configured.
type Loader struct {
	root  string
	cache *Cache

	mu      sync.Mutex
	classes map[string]*bytecode.Class
}

// NewLoader creates a loader over root. cache may be nil.
func NewLoader(root string, cache *Cache) *Loader {
	return &Loader{
		root:    root,
		cache:   cache,
		classes: make(map[string]*bytecode.Class),
	}
}

// Root returns the decompiled directory.
func (l *Loader) Root() string {
	return l.root
}

// ClassFile returns the path of the document for a slash-form class name.
func (l *Loader) ClassFile(name string) string {
	return filepath.Join(l.root, filepath.FromSlash(name)+".json")
}

// Class returns the decoded class, reading it on first use.
func (l *Loader) Class(name string) (*bytecode.Class, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.classes[name]; ok {
		return c, nil
	}
	c, err := l.load(name)
	if err != nil {
		return nil, err
	}
	l.classes[name] = c
	return c, nil
}

func (l *Loader) load(name string) (*bytecode.Class, error) {
	path := l.ClassFile(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("classpath: class %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("classpath: cannot read %s: %w", path, err)
	}

	if c, ok := l.cache.Get(name, data); ok {
		return c, nil
	}
	c, err := bytecode.DecodeClass(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("classpath: %s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = name
	}
	if err := l.cache.Put(name, data, c); err != nil {
		log.Warningf("cache write for %s failed: %v", name, err)
	}
	log.Debugf("loaded %s (%d methods)", name, len(c.Methods))
	return c, nil
}

// Resolve finds ref by class, method name and parameter types.
func (l *Loader) Resolve(ref bytecode.MethodRef) (*bytecode.Method, error) {
	c, err := l.Class(ref.Class)
	if err != nil {
		return nil, &ResolveError{Ref: ref, Err: err}
	}
	return findIn(c, ref)
}

// Classes lists the slash-form names of every class document under root.
func (l *Loader) Classes() ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel[:len(rel)-len(".json")]))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("classpath: list %s: %w", l.root, err)
	}
	return names, nil
}
