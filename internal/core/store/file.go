package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend keeps one <collection>.json file per collection under Dir.
type FileBackend struct {
	Dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		dir = "./data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{Dir: dir}, nil
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) path(collection string) string {
	if filepath.IsAbs(collection) {
		return collection
	}
	return filepath.Join(b.Dir, collection+".json")
}

func (b *FileBackend) Read(_ context.Context, collection string) ([]byte, error) {
	data, err := os.ReadFile(b.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Write 先写临时文件再 rename，读者不会看到半个文件
func (b *FileBackend) Write(_ context.Context, collection string, data []byte) error {
	p := b.path(collection)
	tmp, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}
