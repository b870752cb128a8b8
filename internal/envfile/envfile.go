package envfile

import (
	"strings"
)

// FileName is the name of the configuration file inside an installation.
const FileName = ".env"

// Entry is a single key/value pair.
type Entry struct {
	Key   string
	Value string
}

// Configuration is an ordered set of option assignments.
// The zero value is not usable; create one with New.
type Configuration struct {
	keys   []string
	values map[string]string
}

// New returns an empty Configuration.
func New() *Configuration {
	return &Configuration{values: make(map[string]string)}
}

// CanonicalKey converts an option name to the upper snake case form used in
// the file.
func CanonicalKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.ReplaceAll(key, "-", "_")
	return strings.ToUpper(key)
}

// Set assigns value to key. A new key is appended after the existing ones;
// an existing key keeps its position.
func (c *Configuration) Set(key, value string) {
	key = CanonicalKey(key)
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value of key and whether it is set.
func (c *Configuration) Get(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.values[CanonicalKey(key)]
	return v, ok
}

// Lookup returns the value of key, or fallback when the key is unset or empty.
func (c *Configuration) Lookup(key, fallback string) string {
	if v, ok := c.Get(key); ok && v != "" {
		return v
	}
	return fallback
}

// Len returns the number of keys.
func (c *Configuration) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Keys returns the keys in order.
func (c *Configuration) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Entries returns the assignments in order.
func (c *Configuration) Entries() []Entry {
	if c == nil {
		return nil
	}
	entries := make([]Entry, 0, len(c.keys))
	for _, k := range c.keys {
		entries = append(entries, Entry{Key: k, Value: c.values[k]})
	}
	return entries
}

// Environ returns the assignments as KEY=value strings, suitable for
// exec.Cmd.Env.
func (c *Configuration) Environ() []string {
	entries := c.Entries()
	env := make([]string, 0, len(entries))
	for _, e := range entries {
		env = append(env, e.Key+"="+e.Value)
	}
	return env
}

// Clone returns an independent copy of c.
func (c *Configuration) Clone() *Configuration {
	out := New()
	if c == nil {
		return out
	}
	out.keys = append(out.keys, c.keys...)
	for k, v := range c.values {
		out.values[k] = v
	}
	return out
}
