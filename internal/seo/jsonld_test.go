package seo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFAQPage(t *testing.T) {
	raw := JSON(FAQPage([]Question{{Name: "Q?", Answer: "A."}}))
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "FAQPage", doc["@type"])
	entities := doc["mainEntity"].([]any)
	require.Len(t, entities, 1)
	assert.Equal(t, "Q?", entities[0].(map[string]any)["name"])
}

func TestProductOfferPrice(t *testing.T) {
	doc := Product("JobConcierge", "AI job applications", []Offer{{Name: "Pro", Cents: 3900, Currency: "USD"}})
	offers := doc["offers"].([]map[string]any)
	assert.Equal(t, "39.00", offers[0]["price"])
	assert.Equal(t, "USD", offers[0]["priceCurrency"])
}
