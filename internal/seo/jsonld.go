package seo

import (
	"encoding/json"
	"fmt"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// Question is one FAQ entry for FAQPage.
type Question struct {
	Name   string
	Answer string
}

// FAQPage builds schema.org FAQPage from plain-text answers.
func FAQPage(questions []Question) map[string]any {
	entities := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		entities = append(entities, map[string]any{
			"@type": "Question",
			"name":  q.Name,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  q.Answer,
			},
		})
	}
	return map[string]any{
		"@context":   "https://schema.org",
		"@type":      "FAQPage",
		"mainEntity": entities,
	}
}

// Offer describes one priced plan.
type Offer struct {
	Name     string
	Cents    int64
	Currency string
	URL      string
}

// Product wraps plan offers in a schema.org Product.
func Product(name, description string, offers []Offer) map[string]any {
	list := make([]map[string]any, 0, len(offers))
	for _, o := range offers {
		el := map[string]any{
			"@type":         "Offer",
			"name":          o.Name,
			"price":         fmt.Sprintf("%d.%02d", o.Cents/100, o.Cents%100),
			"priceCurrency": o.Currency,
		}
		if o.URL != "" {
			el["url"] = o.URL
		}
		list = append(list, el)
	}
	return map[string]any{
		"@context":    "https://schema.org",
		"@type":       "Product",
		"name":        name,
		"description": description,
		"offers":      list,
	}
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}
