// Package registry persists the fleet's declared containers as one JSON
// object keyed by container name.
//
// The file is read wholesale on every access and rewritten wholesale on
// every mutation. There is no locking: concurrent writers race and the last
// write wins.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rusenback/webtopd/internal/model"
)

// Registry is an ordered mapping of container name to its raw config
type Registry struct {
	names   []string
	entries map[string]json.RawMessage
}

func New() *Registry {
	return &Registry{entries: map[string]json.RawMessage{}}
}

// Names returns the container names in file order
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Raw returns the stored config exactly as persisted
func (r *Registry) Raw(name string) (json.RawMessage, bool) {
	v, ok := r.entries[name]
	return v, ok
}

// Set stores cfg under its name, keeping the position of an existing entry
func (r *Registry) Set(cfg model.ContainerConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	r.setRaw(cfg.Name, data)
	return nil
}

func (r *Registry) setRaw(name string, raw json.RawMessage) {
	if _, ok := r.entries[name]; !ok {
		r.names = append(r.names, name)
	}
	r.entries[name] = raw
}

// Remove deletes name, reporting whether it was present
func (r *Registry) Remove(name string) bool {
	if _, ok := r.entries[name]; !ok {
		return false
	}

	delete(r.entries, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}

	return true
}

// UnmarshalJSON decodes a JSON object keeping key order
func (r *Registry) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("registry: expected object, got %v", tok)
	}

	fresh := New()

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("registry: expected key, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return errors.Wrapf(err, "registry: entry %s", name)
		}

		fresh.setRaw(name, raw)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = *fresh
	return nil
}

// MarshalJSON encodes the registry as an object in insertion order
func (r *Registry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(r.entries[name])
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Store is the file backing a Registry
type Store struct {
	Path string
}

// Load reads the whole registry. A missing file is an empty registry.
func (s *Store) Load() (*Registry, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read registry")
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}

	r := New()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, errors.Wrapf(err, "parse registry %s", s.Path)
	}

	return r, nil
}

// Save rewrites the whole file through a temp file and rename, keeping the
// mode of an existing file (0644 for a new one)
func (s *Store) Save(r *Registry) error {
	compact, err := r.MarshalJSON()
	if err != nil {
		return err
	}

	var data bytes.Buffer
	if err := json.Indent(&data, compact, "", "  "); err != nil {
		return err
	}
	data.WriteByte('\n')

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return errors.Wrap(err, "write registry")
	}
	defer os.Remove(tmp.Name())

	mode := os.FileMode(0644)
	if fi, err := os.Stat(s.Path); err == nil {
		mode = fi.Mode().Perm()
	}

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write registry")
	}

	if _, err := tmp.Write(data.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write registry")
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "write registry")
	}

	return errors.Wrap(os.Rename(tmp.Name(), s.Path), "write registry")
}

// Put loads, sets cfg and saves
func (s *Store) Put(cfg model.ContainerConfig) error {
	r, err := s.Load()
	if err != nil {
		return err
	}

	if err := r.Set(cfg); err != nil {
		return err
	}

	return s.Save(r)
}

// Delete loads, removes name and saves. Removing an absent name is a no-op.
func (s *Store) Delete(name string) error {
	r, err := s.Load()
	if err != nil {
		return err
	}

	if !r.Remove(name) {
		return nil
	}

	return s.Save(r)
}
