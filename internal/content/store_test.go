package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFAQLoadsAndRendersMarkdown(t *testing.T) {
	s := NewStore("../../content", "en")
	faq, err := s.FAQ("en")
	require.NoError(t, err)
	require.NotEmpty(t, faq.Categories)
	assert.Equal(t, "general", faq.Categories[0].ID)
	first := faq.Categories[0].Items[0]
	assert.Contains(t, string(first.Answer), "<strong>application packet</strong>")
	assert.NotContains(t, first.Plain, "**")

	billing, ok := faq.Category("billing")
	assert.True(t, ok)
	assert.Equal(t, "billing", billing.ID)
	fallback, ok := faq.Category("nope")
	assert.False(t, ok)
	assert.Equal(t, "general", fallback.ID)
}

func TestFeaturesTabFallback(t *testing.T) {
	s := NewStore("../../content", "en")
	f, err := s.Features("es")
	require.NoError(t, err)
	assert.Equal(t, "es", f.Lang)
	assert.Equal(t, "documents", f.Tab("documents").ID)
	assert.Equal(t, "matching", f.Tab("unknown").ID)
}

func TestPageFallsBackToDefaultLanguage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "en", "pages"), 0o755))
	page := "---\ntitle: Cookie Policy\nupdated_at: 2026-05-01\n---\nWe use one cookie.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en", "pages", "cookies.md"), []byte(page), 0o644))
	s := NewStore(dir, "en")

	p, err := s.Page("es", "cookies")
	require.NoError(t, err)
	assert.Equal(t, "en", p.Lang)
	assert.Equal(t, "Cookie Policy", p.Title)
	assert.Equal(t, 2026, p.UpdatedAt.Year())
	assert.Contains(t, string(p.Body), "We use one cookie.")

	_, err = s.Page("en", "../secrets")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Page("en", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPageUsesTranslationWhenPresent(t *testing.T) {
	s := NewStore("../../content", "en")
	p, err := s.Page("es", "privacy")
	require.NoError(t, err)
	assert.Equal(t, "es", p.Lang)
	assert.Equal(t, "Política de privacidad", p.Title)
}

func TestRenderSanitizesHTML(t *testing.T) {
	s := NewStore(t.TempDir(), "en")
	out := string(s.Render("hello <script>alert(1)</script> [x](javascript:alert(1))"))
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func TestCacheHonoursTTL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "en"), 0o755))
	write := func(title string) {
		body := "tabs:\n  - id: a\n    title: " + title + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "en", "features.yaml"), []byte(body), 0o644))
	}
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	s := NewStore(dir, "en", WithCacheTTL(time.Minute), WithClock(func() time.Time { return now }))

	write("First")
	f, err := s.Features("en")
	require.NoError(t, err)
	assert.Equal(t, "First", f.Tabs[0].Title)

	write("Second")
	f, _ = s.Features("en")
	assert.Equal(t, "First", f.Tabs[0].Title)

	now = now.Add(2 * time.Minute)
	f, _ = s.Features("en")
	assert.Equal(t, "Second", f.Tabs[0].Title)
}

func TestPlainTextStripsLinks(t *testing.T) {
	assert.Equal(t, "Card by Stripe here.", plainText("Card by [Stripe](https://stripe.com) **here**."))
}
