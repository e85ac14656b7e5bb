// ABOUTME: HTTP file server for a loaded Bundle
// ABOUTME: Gzips the main bundle and serves model files raw with ranges and BLAKE3 ETags

package assets

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzhttp"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"
)

// etagCache memoizes strong ETags per file. Entries are keyed on the file's
// size and mod time so a build served from disk is rehashed after it changes.
type etagCache struct {
	mu    sync.Mutex
	tags  map[string]etagEntry
	group singleflight.Group
}

type etagEntry struct {
	version string
	tag     string
}

func newETagCache() *etagCache {
	return &etagCache{tags: make(map[string]etagEntry)}
}

// fileVersion identifies one revision of a file. Embedded files report a zero
// mod time and never change.
func fileVersion(info fs.FileInfo) string {
	return strconv.FormatInt(info.Size(), 10) + "@" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
}

// get returns the ETag for name at the given version, hashing content on a
// miss. Concurrent misses for the same revision share one hash; the cache lock
// is never held while hashing.
func (c *etagCache) get(name, version string, content io.ReadSeeker) (string, error) {
	c.mu.Lock()
	e, ok := c.tags[name]
	c.mu.Unlock()
	if ok && e.version == version {
		return e.tag, nil
	}

	v, err, _ := c.group.Do(name+"\x00"+version, func() (any, error) {
		h := blake3.New()
		if _, err := io.Copy(h, content); err != nil {
			return "", err
		}
		if _, err := content.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
		tag := `"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`

		c.mu.Lock()
		c.tags[name] = etagEntry{version: version, tag: tag}
		c.mu.Unlock()
		return tag, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// FileServer returns an http.Handler that serves the bundle's files.
// Hashed assets get immutable cache headers; unhashed assets get no-cache.
// The handler expects paths relative to the build root (strip /static/ before calling).
func (b *Bundle) FileServer() http.Handler {
	main := gzhttp.GzipHandler(http.FileServer(http.FS(b.fsys)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ext := strings.ToLower(path.Ext(r.URL.Path))
		if ext != "" {
			w.Header().Set("Content-Type", mimeFromExt(ext))
		}

		if containsHash(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}

		if b.IsModelFile(r.URL.Path) {
			b.serveModel(w, r)
			return
		}
		main.ServeHTTP(w, r)
	})
}

// serveModel serves a models chunk file uncompressed so byte ranges stay
// meaningful to streaming loaders.
func (b *Bundle) serveModel(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	f, err := b.fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		b.logger.Error("opening model file", "file", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	content, ok := f.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(f)
		if err != nil {
			b.logger.Error("reading model file", "file", name, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		content = bytes.NewReader(data)
	}

	tag, err := b.etags.get(name, fileVersion(info), content)
	if err != nil {
		b.logger.Error("hashing model file", "file", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("ETag", tag)
	w.Header().Set("Accept-Ranges", "bytes")

	// Embedded files carry a zero mod time; ServeContent then relies on the ETag.
	http.ServeContent(w, r, name, info.ModTime(), content)
}
