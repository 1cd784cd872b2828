package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
)

// DefaultContextFile is the context file name looked for in the working
// directory.
const DefaultContextFile = "wetwire.context.json"

// ContextFile is a JSON object of recorded lookup answers keyed by
// ImageKey / AZKey. It is safe for concurrent use.
type ContextFile struct {
	path string

	mu      sync.RWMutex
	entries map[string]json.RawMessage
	dirty   bool
}

// LoadContextFile reads the context file at path. A missing file yields an
// empty context.
func LoadContextFile(path string) (*ContextFile, error) {
	cf := &ContextFile{
		path:    path,
		entries: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read context file: %w", err)
	}
	if len(data) == 0 {
		return cf, nil
	}

	if err := json.Unmarshal(data, &cf.entries); err != nil {
		return nil, fmt.Errorf("parse context file %s: %w", path, err)
	}
	return cf, nil
}

// Path returns the file path.
func (c *ContextFile) Path() string { return c.path }

// Get decodes the value stored at key into v. It reports whether the key
// was present.
func (c *ContextFile) Get(key string, v any) (bool, error) {
	c.mu.RLock()
	raw, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode context %s: %w", key, err)
	}
	return true, nil
}

// Set stores v at key.
func (c *ContextFile) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode context %s: %w", key, err)
	}

	c.mu.Lock()
	c.entries[key] = raw
	c.dirty = true
	c.mu.Unlock()
	return nil
}

// Delete removes key. It reports whether the key was present.
func (c *ContextFile) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	c.dirty = true
	return true
}

// Clear removes every entry.
func (c *ContextFile) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) > 0 {
		c.dirty = true
	}
	c.entries = make(map[string]json.RawMessage)
}

// Keys returns the stored keys, sorted.
func (c *ContextFile) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Raw returns the JSON text stored at key.
func (c *ContextFile) Raw(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return string(c.entries[key])
}

// Len returns the number of entries.
func (c *ContextFile) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Save writes the context back to disk if it changed.
func (c *ContextFile) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return nil
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write context file: %w", err)
	}

	c.dirty = false
	return nil
}
