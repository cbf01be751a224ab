package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	ep, err := ParseEndpoint("127.0.0.1:1234")
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Host: "127.0.0.1", Port: 1234}, ep)
	assert.Equal(t, "127.0.0.1:1234", ep.Addr())
}

func TestParseEndpointRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "localhost", ":8080", "host:notaport", "host:70000"} {
		_, err := ParseEndpoint(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestReadServerInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.info")
	require.NoError(t, os.WriteFile(path, []byte("192.168.0.5:8080\n"), 0o644))

	ep, err := ReadServerInfo(path)
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Host: "192.168.0.5", Port: 8080}, ep)
}

func TestReadBackupList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.info")
	require.NoError(t, os.WriteFile(path, []byte("first.txt\n\nsecond.pdf\n  third.bin  \n"), 0o644))

	files, err := ReadBackupList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first.txt", "second.pdf", "third.bin"}, files)
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, "tcp", cfg.Transport)
}

func TestValidateRejectsBadLevelAndTransport(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.validate())

	cfg = Default()
	cfg.Transport = "carrier-pigeon"
	assert.Error(t, cfg.validate())
}
