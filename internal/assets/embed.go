// Package assets serves the single-page app's Vite build, embedded via go:embed.
// It reads the Vite manifest to map entry points to hashed filenames, keeps the
// models chunk off the primary load path, and provides a file server with
// appropriate cache headers.
package assets

import (
	"embed"
	"io/fs"
	"mime"
	"regexp"
)

//go:embed all:dist
var distFS embed.FS

// hashPattern detects Vite's content hashes in filenames (e.g. ".CU4W1PlC.").
// Vite uses base64url hashes, so we accept [a-zA-Z0-9_-]. The 8-char minimum
// matches Vite's default hash length. Could false-positive on long words like
// "production"; all served files come from Vite output.
var hashPattern = regexp.MustCompile(`[.-][a-zA-Z0-9_-]{8,}\.`)

func init() {
	// Register MIME types that may not be in the default database.
	// Errors are ignored: these only fail if extension format is invalid,
	// and our literals are known-good.
	_ = mime.AddExtensionType(".woff2", "font/woff2")
	_ = mime.AddExtensionType(".map", "application/json")
	_ = mime.AddExtensionType(".glb", "model/gltf-binary")
	_ = mime.AddExtensionType(".gltf", "model/gltf+json")
}

// Embedded returns the embedded build output rooted at dist/.
func Embedded() fs.FS {
	sub, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("assets: failed to create sub filesystem: " + err.Error())
	}
	return sub
}

// containsHash reports whether the given path contains a content hash
// (8+ characters between a separator and a dot, e.g. "auto.a1b2c3d4.js").
func containsHash(p string) bool {
	return hashPattern.MatchString(p)
}

// mimeFromExt returns the MIME type for a file extension.
// Falls back to the Go standard library's MIME type database,
// then to "application/octet-stream" if unknown.
func mimeFromExt(ext string) string {
	switch ext {
	case ".js", ".mjs":
		return "application/javascript"
	case ".css":
		return "text/css; charset=utf-8"
	case ".woff2":
		return "font/woff2"
	case ".svg":
		return "image/svg+xml"
	case ".map":
		return "application/json"
	case ".glb":
		return "model/gltf-binary"
	case ".gltf":
		return "model/gltf+json"
	default:
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
		return "application/octet-stream"
	}
}
