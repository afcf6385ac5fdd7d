// Package web serves the single-page journal list view.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var content embed.FS

// Paths lists the URL paths served by Handler
var Paths = []string{"/", "/app.js"}

// Handler serves the embedded front end
func Handler() http.Handler {
	static, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(static))
}
