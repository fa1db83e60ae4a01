package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/format"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/i18n"
	mw "github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/middleware"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/observability"
)

// views holds parsed templates. Every file outside pages/ is shared; each
// pages/<name>.tmpl is parsed into its own clone so pages can define the
// same "content" block. In dev mode templates are reparsed on each request.
type views struct {
	dir   string
	dev   bool
	funcs template.FuncMap

	shared *template.Template
	pages  map[string]*template.Template
}

func newViews(dir string, dev bool, funcs template.FuncMap) (*views, error) {
	v := &views{dir: dir, dev: dev, funcs: funcs}
	shared, pages, err := v.parse()
	if err != nil {
		return nil, err
	}
	v.shared, v.pages = shared, pages
	return v, nil
}

func (v *views) parse() (*template.Template, map[string]*template.Template, error) {
	// Recursively discover all .tmpl files. Note: ParseGlob doesn't support **.
	var sharedFiles, pageFiles []string
	if err := filepath.WalkDir(v.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".tmpl") {
			return nil
		}
		rel, _ := filepath.Rel(v.dir, path)
		if strings.HasPrefix(filepath.ToSlash(rel), "pages/") {
			pageFiles = append(pageFiles, path)
		} else {
			sharedFiles = append(sharedFiles, path)
		}
		return nil
	}); err != nil {
		return nil, nil, err
	}
	if len(sharedFiles) == 0 || len(pageFiles) == 0 {
		return nil, nil, fmt.Errorf("no templates found under %s", v.dir)
	}

	shared, err := template.New("_root").Funcs(v.funcs).ParseFiles(sharedFiles...)
	if err != nil {
		return nil, nil, err
	}
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, f := range pageFiles {
		clone, err := shared.Clone()
		if err != nil {
			return nil, nil, err
		}
		if _, err := clone.ParseFiles(f); err != nil {
			return nil, nil, err
		}
		pages[strings.TrimSuffix(filepath.Base(f), ".tmpl")] = clone
	}
	return shared, pages, nil
}

func (v *views) current() (*template.Template, map[string]*template.Template, error) {
	if v.dev {
		return v.parse()
	}
	return v.shared, v.pages, nil
}

// page executes the base layout with the named page's blocks.
func (v *views) page(name string, data any) ([]byte, error) {
	_, pages, err := v.current()
	if err != nil {
		return nil, err
	}
	t, ok := pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fragment executes a shared partial such as "c_inline_alert".
func (v *views) fragment(name string, data any) ([]byte, error) {
	shared, _, err := v.current()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := shared.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderPage writes a full page with the given status. Output is buffered so
// a template failure still yields a clean 500.
func (s *server) renderPage(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	out, err := s.views.page(name, data)
	s.write(w, r, code, name, out, err)
}

// renderTemplate writes a partial, used for htmx swaps.
func (s *server) renderTemplate(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	out, err := s.views.fragment(name, data)
	s.write(w, r, code, name, out, err)
}

func (s *server) write(w http.ResponseWriter, r *http.Request, code int, name string, out []byte, err error) {
	if err != nil {
		observability.FromContext(r.Context()).Error("template render failed", zap.String("template", name), zap.Error(err))
		observability.WriteError(w, r, http.StatusInternalServerError, "template error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(out)
}

func templateFuncs(bundle *i18n.Bundle, assets *mw.Assets) template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		"t":   bundle.T,
		"tf":  bundle.Tf,
		"asset": func(name string) string {
			return assets.URL(name)
		},
		"price": format.FmtPrice,
		"count": func(n int, lang string) string {
			return format.FmtCount(int64(n), lang)
		},
		"date": format.FmtDate,
		"pct": func(score float64) string {
			return fmt.Sprintf("%.0f%%", score*100)
		},
		"jsonld": func(s string) template.JS {
			return template.JS(s)
		},
		"add": func(a, b int) int { return a + b },
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
	}
}
