package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// FileBackend keeps each document as a file under Root. Writes overwrite
// the file in place; a crash mid-write can leave a truncated document.
type FileBackend struct {
	Root string
}

func NewFileBackend(root string) *FileBackend {
	if root == "" {
		root = "."
	}
	return &FileBackend{Root: root}
}

func (f *FileBackend) path(name string) string { return filepath.Join(f.Root, filepath.FromSlash(name)) }

func (f *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	b, err := os.ReadFile(f.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return b, err
}

func (f *FileBackend) Write(ctx context.Context, name string, data []byte) error {
	p := f.path(name)
	if dir := filepath.Dir(p); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(p, data, 0o644)
}

// Ping creates the root directory if needed.
func (f *FileBackend) Ping(ctx context.Context) error {
	return os.MkdirAll(f.Root, 0o755)
}
