package manifest

import (
	"crypto/sha256"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingIsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "manifest.cbor"))
	require.NoError(t, err)
	assert.Empty(t, m.List())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.cbor")
	m, err := Load(path)
	require.NoError(t, err)

	m.RecordBackup("b.txt", []byte("bravo"))
	m.RecordBackup("a.txt", []byte("alpha"))
	require.NoError(t, m.Save())

	m2, err := Load(path)
	require.NoError(t, err)
	entries := m2.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, "b.txt", entries[1].Name)
	sum := sha256.Sum256([]byte("alpha"))
	assert.Equal(t, sum[:], entries[0].SHA256)
	assert.EqualValues(t, 5, entries[0].Size)
}

func TestRecordDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.cbor")
	m, err := Load(path)
	require.NoError(t, err)

	m.RecordBackup("gone.txt", []byte("x"))
	m.RecordDelete("gone.txt")
	require.NoError(t, m.Save())

	m2, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, m2.List())
}
