package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := Load("../../locales", "en", []string{"en", "es"})
	require.NoError(t, err)
	return b
}

func TestResolveHonorsQValues(t *testing.T) {
	b := loadBundle(t)
	assert.Equal(t, "es", b.Resolve("en;q=0.8, es;q=0.9"))
	assert.Equal(t, "es", b.Resolve("es-MX,es;q=0.9"))
	assert.Equal(t, "en", b.Resolve("fr-FR"))
	assert.Equal(t, "en", b.Resolve(""))
}

func TestTranslateFallsBack(t *testing.T) {
	b := loadBundle(t)
	assert.Equal(t, "Pricing", b.T("en", "nav.pricing"))
	assert.Equal(t, "Precios", b.T("es", "nav.pricing"))
	assert.Equal(t, "Pricing", b.T("de", "nav.pricing"))
	assert.Equal(t, "missing.key", b.T("es", "missing.key"))
}

func TestNormalize(t *testing.T) {
	b := loadBundle(t)
	assert.Equal(t, "es", b.Normalize("ES"))
	assert.Equal(t, "es", b.Normalize("es-AR"))
	assert.Equal(t, "", b.Normalize("fr"))
	assert.Equal(t, "", b.Normalize("not a tag"))
}

func TestOptionsMarksCurrent(t *testing.T) {
	b := loadBundle(t)
	opts := b.Options("es")
	require.Len(t, opts, 2)
	assert.Equal(t, "en", opts[0].Code)
	assert.False(t, opts[0].Active)
	assert.True(t, opts[1].Active)
	assert.NotEmpty(t, opts[1].Label)
}

func TestLoadRequiresFallback(t *testing.T) {
	_, err := Load(t.TempDir(), "en", []string{"en"})
	assert.Error(t, err)
}
