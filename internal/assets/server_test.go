package assets

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/2389/modelview/internal/bundle"
)

func serve(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFileServer_MainBundleGzipped(t *testing.T) {
	h := loadTestBundle(t).FileServer()

	req := httptest.NewRequest(http.MethodGet, "/assets/main.a1b2c3d4.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := serve(t, h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/javascript" {
		t.Errorf("Content-Type = %q, want application/javascript", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=31536000, immutable" {
		t.Errorf("Cache-Control = %q, want immutable", got)
	}
}

func TestFileServer_UnhashedNoCache(t *testing.T) {
	h := loadTestBundle(t).FileServer()

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
}

func TestFileServer_ModelUncompressedWithETag(t *testing.T) {
	h := loadTestBundle(t).FileServer()

	req := httptest.NewRequest(http.MethodGet, "/assets/duck.12345678.glb", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := serve(t, h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding = %q, want none", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "model/gltf-binary" {
		t.Errorf("Content-Type = %q, want model/gltf-binary", got)
	}
	etag := rec.Header().Get("ETag")
	if len(etag) != 34 {
		t.Fatalf("ETag = %q, want 32 hex chars in quotes", etag)
	}
	if rec.Body.String() != "glTF\x02\x00\x00\x00binary-model-payload" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	// Conditional request hits the cached tag.
	req = httptest.NewRequest(http.MethodGet, "/assets/duck.12345678.glb", nil)
	req.Header.Set("If-None-Match", etag)
	if rec := serve(t, h, req); rec.Code != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", rec.Code)
	}
}

func TestFileServer_ModelRange(t *testing.T) {
	h := loadTestBundle(t).FileServer()

	req := httptest.NewRequest(http.MethodGet, "/assets/duck.12345678.glb", nil)
	req.Header.Set("Range", "bytes=0-3")
	rec := serve(t, h, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if rec.Body.String() != "glTF" {
		t.Errorf("range body = %q, want %q", rec.Body.String(), "glTF")
	}
}

func TestFileServer_ModelMissing(t *testing.T) {
	h := loadTestBundle(t).FileServer()

	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/assets/missing.glb", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestETagCache_RehashesNewVersion(t *testing.T) {
	c := newETagCache()

	first, err := c.get("m.glb", "4@1", strings.NewReader("aaaa"))
	if err != nil {
		t.Fatal(err)
	}
	again, err := c.get("m.glb", "4@1", strings.NewReader("bbbb"))
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Errorf("same version returned %q, want cached %q", again, first)
	}

	changed, err := c.get("m.glb", "4@2", strings.NewReader("bbbb"))
	if err != nil {
		t.Fatal(err)
	}
	if changed == first {
		t.Errorf("new version kept stale tag %q", changed)
	}
}

func TestETagCache_ConcurrentMisses(t *testing.T) {
	c := newETagCache()

	var wg sync.WaitGroup
	tags := make([]string, 16)
	for i := range tags {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, err := c.get("m.glb", "7@0", strings.NewReader("payload"))
			if err != nil {
				t.Error(err)
				return
			}
			tags[i] = tag
		}(i)
	}
	wg.Wait()

	for i, tag := range tags {
		if tag != tags[0] {
			t.Errorf("tags[%d] = %q, want %q", i, tag, tags[0])
		}
	}
}

func TestFileServer_ModelETagFollowsChanges(t *testing.T) {
	fsys := fstest.MapFS{
		"models/duck.glb": {Data: []byte("glTF-v1"), ModTime: time.Unix(100, 0)},
	}
	b, err := Load(fsys, bundle.DefaultPolicy(), nil)
	if err != nil {
		t.Fatal(err)
	}
	h := b.FileServer()

	before := serve(t, h, httptest.NewRequest(http.MethodGet, "/models/duck.glb", nil)).Header().Get("ETag")

	fsys["models/duck.glb"] = &fstest.MapFile{Data: []byte("glTF-v2"), ModTime: time.Unix(200, 0)}
	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/models/duck.glb", nil))
	after := rec.Header().Get("ETag")

	if before == "" || after == "" {
		t.Fatalf("missing ETag: before=%q after=%q", before, after)
	}
	if before == after {
		t.Errorf("ETag %q did not change after the file changed", after)
	}
	if rec.Body.String() != "glTF-v2" {
		t.Errorf("body = %q, want glTF-v2", rec.Body.String())
	}
}
