// Package templates provides the native sources instantiations are generated from.
package templates

import (
	"archive/zip"
	"embed"
	"fmt"
	"io/fs"
)

//go:embed include src lib miscellaneous
var nativeTemplatesFS embed.FS

// FS exposes the embedded template tree, rooted at its include/, src/, lib/ and
// miscellaneous/ directories.
func FS() fs.FS {
	return nativeTemplatesFS
}

// Archive is a template tree read from a zip file.
type Archive struct {
	*zip.ReadCloser
}

// OpenArchive opens a zip file laid out like the embedded tree. The caller
// closes the returned archive.
func OpenArchive(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template archive: %w", err)
	}
	if _, err := fs.Stat(rc, "include/common.hpp"); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("template archive %s: %w", path, err)
	}
	return &Archive{ReadCloser: rc}, nil
}
