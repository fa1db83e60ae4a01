package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Assets serves files under dir at prefix with Cache-Control, Vary and ETag handling.
type Assets struct {
	prefix string
	etags  map[string]string
	fs     http.Handler
}

// NewAssets precomputes ETags for files under dir.
func NewAssets(dir, prefix string) *Assets {
	etags := map[string]string{}
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		et, err := fileETag(path)
		if err != nil {
			return nil
		}
		if rel, err := filepath.Rel(dir, path); err == nil {
			etags["/"+filepath.ToSlash(rel)] = et
		}
		return nil
	})
	prefix = "/" + strings.Trim(prefix, "/")
	return &Assets{
		prefix: prefix,
		etags:  etags,
		fs:     http.StripPrefix(prefix, http.FileServer(http.Dir(dir))),
	}
}

// URL returns the public path of an asset with a version query for cache busting.
func (a *Assets) URL(name string) string {
	name = "/" + strings.TrimPrefix(name, "/")
	u := a.prefix + name
	if et, ok := a.etags[name]; ok {
		// W/"<hex>" -> first 10 hex chars
		v := strings.Trim(strings.TrimPrefix(et, "W/"), `"`)
		if len(v) > 10 {
			v = v[:10]
		}
		u += "?v=" + v
	}
	return u
}

func (a *Assets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Vary", "Accept-Encoding")
	if r.URL.Query().Get("v") != "" {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=604800, stale-while-revalidate=86400")
	}
	if et := a.etags[strings.TrimPrefix(r.URL.Path, a.prefix)]; et != "" {
		w.Header().Set("ETag", et)
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == et {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	a.fs.ServeHTTP(w, r)
}

func fileETag(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return `W/"` + hex.EncodeToString(h.Sum(nil)) + `"`, nil
}
