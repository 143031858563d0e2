package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TempSource is the materialized source block of an annotated fixture.
// It lives until the single execution that consumes it has finished.
type TempSource struct {
	Path string

	once sync.Once
	err  error
}

// Remove deletes the file. Calling it more than once is safe.
func (t *TempSource) Remove() error {
	t.once.Do(func() {
		if err := os.Remove(t.Path); err != nil && !os.IsNotExist(err) {
			t.err = err
		}
	})
	return t.err
}

// createTempSource writes content verbatim into a new file inside dir.
// The fixture's extension is kept so the interpreter sees a familiar name.
func createTempSource(dir, fixturePath string, content []byte) (*TempSource, error) {
	ext := filepath.Ext(fixturePath)
	if ext == "" {
		ext = ".tmp"
	}
	name := strings.TrimSuffix(filepath.Base(fixturePath), ext)

	tmpFile, err := os.CreateTemp(dir, fmt.Sprintf("fixture-%s-*%s", name, ext))
	if err != nil {
		return nil, err
	}

	if _, err := tmpFile.Write(content); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return nil, err
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return nil, err
	}

	return &TempSource{Path: tmpFile.Name()}, nil
}
