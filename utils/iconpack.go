// utils/iconpack.go
package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// IconManifest maps reward codes to icon file paths inside an icon pack
// archive (relative to manifest.json).
type IconManifest struct {
	Icons map[string]string `json:"icons"`
}

// maxIconSize caps a single extracted icon. Icon packs are small; anything
// bigger is a broken or hostile archive.
const maxIconSize = 5 << 20 // 5 MiB

// ExtractIconPack extracts an icon pack zip to the given destination
// directory. Returns an error if any entry tries to escape the destination
// (path traversal protection) or exceeds the per-file size cap.
func ExtractIconPack(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		path := filepath.Join(dest, f.Name)

		// ✅ Security: prevent zip slip (path traversal)
		if !strings.HasPrefix(path, filepath.Clean(dest)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(path, os.ModePerm); err != nil {
				return err
			}
			continue
		}

		if f.UncompressedSize64 > maxIconSize {
			return fmt.Errorf("file too large in icon pack: %s", f.Name)
		}

		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return err
		}

		outFile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			outFile.Close()
			return err
		}

		_, err = io.Copy(outFile, io.LimitReader(rc, maxIconSize))

		outFile.Close()
		rc.Close()

		if err != nil {
			return err
		}
	}

	return nil
}

// ResolveWithin joins rel onto root and rejects any result escaping root.
// Manifest entries are attacker-supplied paths and get the same confinement
// as zip entries.
func ResolveWithin(root, rel string) (string, error) {
	path := filepath.Join(root, rel)
	if !strings.HasPrefix(path, filepath.Clean(root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("illegal file path: %s", rel)
	}
	return path, nil
}

// FindManifest walks an extracted icon pack and returns the path of its
// manifest.json. Packs zipped with a wrapping directory still resolve.
func FindManifest(root string) (string, error) {
	var found string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(info.Name()) == "manifest.json" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", os.ErrNotExist
	}
	return found, nil
}
