// Package web ships the printable document templates inside the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates
var files embed.FS

// Templates is the template tree with layouts/ and documents/ at its root.
var Templates = mustSub(files, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
