package cache

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// Fingerprint summarizes the files of a source. Any added, removed,
// resized or touched file changes it.
type Fingerprint struct {
	Files     int   `json:"files"`
	TotalSize int64 `json:"total_size"`
	NewestMod int64 `json:"newest_mod"` // UnixNano
}

// Compute walks path (a file or a directory tree) and fingerprints it
func Compute(path string) (Fingerprint, error) {
	var fp Fingerprint

	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		fp.Files++
		fp.TotalSize += info.Size()
		if mod := info.ModTime().UnixNano(); mod > fp.NewestMod {
			fp.NewestMod = mod
		}
		return nil
	})
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to fingerprint %s: %w", path, err)
	}

	return fp, nil
}
