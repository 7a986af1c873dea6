package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cesargomez89/songplays/internal/constants"
)

// ErrDataDirMissing is returned by FindDataFiles when the root does not exist.
var ErrDataDirMissing = errors.New("data directory missing")

// FindDataFiles returns the absolute paths of every *.json file under root,
// recursing into subdirectories. The result is sorted so that runs over the
// same tree always visit files in the same order.
func FindDataFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s: %w", ErrDataDirMissing, root, err)
	}
	if err != nil {
		return nil, fmt.Errorf("data directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), constants.DataFileExt) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files = append(files, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, constants.DirPermissions)
}

func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, constants.FilePermissions)
}

func IsNotExist(err error) bool {
	return os.IsNotExist(err)
}
