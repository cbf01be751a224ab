// Package localfs is the engine's only channel to the local filesystem:
// whole-file reads for backup and whole-file writes for restore.
package localfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrFileAccess marks any local read/write/stat failure. It is a per-file
// condition; the batch continues past it.
var ErrFileAccess = errors.New("file access")

// FS is the Local File Adapter contract.
type FS interface {
	ReadAll(path string) ([]byte, error)
	WriteAll(path string, data []byte) error
	Size(path string) (int64, error)
}

// OS is the real-filesystem adapter.
type OS struct{}

func (OS) ReadAll(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFileAccess, path, err)
	}
	return b, nil
}

func (OS) WriteAll(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %s: %v", ErrFileAccess, dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrFileAccess, path, err)
	}
	return nil
}

func (OS) Size(path string) (int64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: stat %s: %v", ErrFileAccess, path, err)
	}
	return st.Size(), nil
}
