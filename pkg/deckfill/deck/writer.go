package deck

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// partModTime is the fixed timestamp written for every part, so identical
// inputs serialize to identical bytes.
var partModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Save serializes the deck to path, creating the output directory when
// absent. Parts keep their original order and compression method.
func (d *Deck) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	zw := zip.NewWriter(f)
	for _, p := range d.parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p.name,
			Method:   p.method,
			Modified: partModTime,
		})
		if err == nil {
			_, err = w.Write(p.data)
		}
		if err != nil {
			zw.Close()
			f.Close()
			return fmt.Errorf("write part %s: %w", p.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
