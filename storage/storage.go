package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/uuid"
)

// Store keeps opaque blobs. Put returns a relative token that the HTTP layer
// can hand out as-is; Delete accepts the same token back.
type Store interface {
	Put(ext string, data []byte) (string, error)
	Delete(token string) error
}

type fileStore struct {
	dir string
}

// NewFileStore stores blobs as randomly named files under dir.
// Tokens look like "images/<random>.<ext>".
func NewFileStore(dir string) Store {
	return &fileStore{dir: dir}
}

func (fs *fileStore) Put(ext string, data []byte) (string, error) {
	err := os.MkdirAll(fs.dir, 0o755)
	if err != nil {
		return "", err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	name := id.String() + "." + ext

	err = os.WriteFile(filepath.Join(fs.dir, name), data, 0o644)
	if err != nil {
		return "", err
	}
	return "images/" + name, nil
}

func (fs *fileStore) Delete(token string) error {
	name := strings.TrimPrefix(token, "images/")
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("bad blob token %q", token)
	}

	err := os.Remove(filepath.Join(fs.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
