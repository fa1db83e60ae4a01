// Package content loads the localized marketing copy (features, FAQ, legal pages)
// from YAML and Markdown files on disk.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no language variant of a document exists.
var ErrNotFound = errors.New("content: not found")

const defaultCacheTTL = 5 * time.Minute

// Store reads content/<lang>/<name> files with a per-document TTL cache.
type Store struct {
	dir      string
	fallback string
	ttl      time.Duration
	now      func() time.Time
	md       goldmark.Markdown
	policy   *bluemonday.Policy

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithCacheTTL overrides how long parsed documents are kept. Zero disables caching.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a Store rooted at dir. Documents missing in a language are
// read from fallback instead.
func NewStore(dir, fallback string, opts ...Option) *Store {
	s := &Store{
		dir:      dir,
		fallback: fallback,
		ttl:      defaultCacheTTL,
		now:      time.Now,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
		cache:  map[string]cacheEntry{},
	}
	s.policy.RequireNoFollowOnLinks(false)
	s.policy.AddTargetBlankToFullyQualifiedLinks(true)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render converts Markdown to sanitized HTML.
func (s *Store) Render(src string) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(s.policy.SanitizeBytes(buf.Bytes()))
}

// load returns the cached value for key or calls parse and caches the result.
func (s *Store) load(key string, parse func() (any, error)) (any, error) {
	now := s.now()
	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && now.Before(entry.expires) {
		return entry.value, nil
	}
	v, err := parse()
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 {
		s.mu.Lock()
		s.cache[key] = cacheEntry{value: v, expires: now.Add(s.ttl)}
		s.mu.Unlock()
	}
	return v, nil
}

// readLocalized reads <dir>/<lang>/<name>, falling back to the default language.
func (s *Store) readLocalized(lang, name string) ([]byte, string, error) {
	priority := []string{lang}
	if lang != s.fallback {
		priority = append(priority, s.fallback)
	}
	for _, candidate := range priority {
		if candidate == "" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, candidate, name))
		if err == nil {
			return raw, candidate, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return nil, "", fmt.Errorf("content: read %s/%s: %w", candidate, name, err)
	}
	return nil, "", ErrNotFound
}

func (s *Store) decodeYAML(lang, name string, out any) (string, error) {
	raw, got, err := s.readLocalized(lang, name)
	if err != nil {
		return "", err
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return "", fmt.Errorf("content: parse %s/%s: %w", got, name, err)
	}
	return got, nil
}

func sanitizeSlug(slug string) string {
	slug = strings.Trim(strings.TrimSpace(strings.ToLower(slug)), "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}
