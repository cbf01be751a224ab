// Package manifest keeps a local record of what this client has backed up:
// name, size, checksum, timestamp. It is advisory state for the user, not
// part of the protocol; the server's listing stays authoritative.
package manifest

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	cbor "github.com/fxamacker/cbor/v2"
)

// Entry describes one backed-up file.
type Entry struct {
	Name       string    `cbor:"name"`
	Size       int64     `cbor:"size"`
	SHA256     []byte    `cbor:"sha256"`
	BackedUpAt time.Time `cbor:"backed_up_at"`
}

// Manifest is the on-disk record, CBOR-encoded with the canonical profile so
// identical state always produces identical bytes.
type Manifest struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

type fileFormat struct {
	Entries []Entry `cbor:"entries"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("manifest: cbor enc mode: %v", err))
	}
	encMode = em
}

// New returns an empty manifest that will save to path.
func New(path string) *Manifest {
	return &Manifest{path: path, entries: make(map[string]Entry)}
}

// Load reads the manifest at path; a missing file yields an empty manifest.
func Load(path string) (*Manifest, error) {
	m := New(path)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var ff fileFormat
	if err := cbor.Unmarshal(b, &ff); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	for _, e := range ff.Entries {
		m.entries[e.Name] = e
	}
	return m, nil
}

// RecordBackup upserts the entry for name with the content's digest.
func (m *Manifest) RecordBackup(name string, content []byte) {
	sum := sha256.Sum256(content)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = Entry{
		Name:       name,
		Size:       int64(len(content)),
		SHA256:     sum[:],
		BackedUpAt: time.Now().UTC(),
	}
}

// RecordDelete drops the entry for name if present.
func (m *Manifest) RecordDelete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
}

// List returns entries sorted by name.
func (m *Manifest) List() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Save writes the manifest atomically (temp file, then rename).
func (m *Manifest) Save() error {
	ff := fileFormat{Entries: m.List()}
	b, err := encMode.Marshal(ff)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if dir := filepath.Dir(m.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("manifest dir: %w", err)
		}
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}
