package classpath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/xxh3"

	"github.com/chazu/jpamb-oracle/pkg/bytecode"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("classpath: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Cache stores decoded classes as CBOR files named after the class and the
// xxh3 digest of its JSON document, so an edited document misses.
// A nil *Cache never hits and discards writes.
type Cache struct {
	dir string
}

// NewCache creates a cache rooted at dir. An empty dir yields nil.
func NewCache(dir string) *Cache {
	if dir == "" {
		return nil
	}
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) path(name string, source []byte) string {
	digest := strconv.FormatUint(xxh3.Hash(source), 16)
	file := strings.ReplaceAll(name, "/", ".") + "-" + digest + ".cbor"
	return filepath.Join(c.dir, file)
}

// Get returns the cached class for the given document contents.
func (c *Cache) Get(name string, source []byte) (*bytecode.Class, bool) {
	if c == nil {
		return nil, false
	}
	data, err := os.ReadFile(c.path(name, source))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warningf("cache read for %s failed: %v", name, err)
		}
		return nil, false
	}
	cls, err := UnmarshalClass(data)
	if err != nil {
		log.Warningf("discarding cache entry for %s: %v", name, err)
		return nil, false
	}
	return cls, true
}

// Put stores cls under the digest of source.
func (c *Cache) Put(name string, source []byte, cls *bytecode.Class) error {
	if c == nil {
		return nil
	}
	data, err := MarshalClass(cls)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("classpath: create cache dir: %w", err)
	}
	path := c.path(name, source)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("classpath: write cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("classpath: write cache: %w", err)
	}
	return nil
}

// MarshalClass serializes a decoded class to canonical CBOR.
func MarshalClass(cls *bytecode.Class) ([]byte, error) {
	data, err := cborEncMode.Marshal(cls)
	if err != nil {
		return nil, fmt.Errorf("classpath: marshal class: %w", err)
	}
	return data, nil
}

// UnmarshalClass deserializes a class written by MarshalClass.
func UnmarshalClass(data []byte) (*bytecode.Class, error) {
	var cls bytecode.Class
	if err := cbor.Unmarshal(data, &cls); err != nil {
		return nil, fmt.Errorf("classpath: unmarshal class: %w", err)
	}
	return &cls, nil
}
