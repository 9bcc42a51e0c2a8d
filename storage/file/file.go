// Package file implements the file storage kind: a pretty-printed,
// key-sorted JSON object at a given URL, written via write-to-temp +
// rename so a reader never observes a partial file.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"

	"github.com/MrtnvM/render-engine/internal/logging"
	"github.com/MrtnvM/render-engine/storage"
	"github.com/MrtnvM/render-engine/value"
)

// Backend is the file storage backend for a single file URL.
type Backend struct {
	path   string
	log    logging.Logger
	watch  *fsnotify.Watcher
	notify func()
}

// New returns a file backend backed by the file at path. A missing file
// loads as an empty map; an unreadable file loads as empty and logs a
// warning rather than propagating past the store boundary.
func New(path string, log logging.Logger) *Backend {
	if log == nil {
		log = logging.NewNoOpLogger()
	}
	return &Backend{path: path, log: log}
}

func (b *Backend) Load(context.Context) (map[string]value.Value, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]value.Value{}, nil
		}
		b.log.Warn("file backend: unreadable file %s: %v", b.path, err)
		return map[string]value.Value{}, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		b.log.Warn("file backend: malformed json in %s: %v", b.path, err)
		return map[string]value.Value{}, nil
	}
	out := make(map[string]value.Value, len(m))
	for k, v := range m {
		dv, err := value.DecodeBare(v)
		if err != nil {
			b.log.Warn("file backend: skipping undecodable key %s: %v", k, err)
			continue
		}
		out[k] = dv
	}
	return out, nil
}

func (b *Backend) Save(_ context.Context, data map[string]value.Value) error {
	encoded := make(map[string]json.RawMessage, len(data))
	for k, v := range data {
		bs, err := value.EncodeBare(v)
		if err != nil {
			return storage.DecodeError("file backend: encode %s: %v", k, err)
		}
		encoded[k] = bs
	}
	pretty, err := marshalSorted(encoded)
	if err != nil {
		return storage.DecodeError("file backend: marshal: %v", err)
	}
	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return storage.TransportError("file backend: create temp: %v", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(pretty); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return storage.TransportError("file backend: write temp: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return storage.TransportError("file backend: close temp: %v", err)
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return storage.TransportError("file backend: rename: %v", err)
	}
	return nil
}

func (b *Backend) Clear(context.Context) error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return storage.TransportError("file backend: clear: %v", err)
	}
	return nil
}

func (b *Backend) SupportsConcurrentAccess() bool { return false }

// WatchExternalChanges starts logging (but never acting on) external
// modifications to the backing file, consistent with the invariant that
// persistent backends' on-disk state is authoritative on restart but a
// running store is not required to observe external writes mid-process.
func (b *Backend) WatchExternalChanges() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return storage.TransportError("file backend: watch: %v", err)
	}
	if err := w.Add(filepath.Dir(b.path)); err != nil {
		w.Close()
		return storage.TransportError("file backend: watch dir: %v", err)
	}
	b.watch = w
	go func() {
		for event := range w.Events {
			if filepath.Clean(event.Name) == filepath.Clean(b.path) {
				b.log.Warn("file backend: external change detected at %s (not applied)", b.path)
			}
		}
	}()
	return nil
}

// StopWatching releases the fsnotify watcher, if one was started.
func (b *Backend) StopWatching() error {
	if b.watch == nil {
		return nil
	}
	return b.watch.Close()
}

func marshalSorted(m map[string]json.RawMessage) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, k := range keys {
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		var indented bytes.Buffer
		if err := json.Indent(&indented, m[k], "  ", "  "); err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(kb)
		buf.WriteString(": ")
		buf.Write(indented.Bytes())
		if i != len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}
