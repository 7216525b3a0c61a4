// Package web embeds the static admin panel.
package web

import (
	"embed"
	"io/fs"
)

//go:embed public
var content embed.FS

// Public returns the admin panel rooted at the public directory.
func Public() fs.FS {
	sub, err := fs.Sub(content, "public")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}
