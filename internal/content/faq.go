package content

import (
	"html/template"
	"strings"
)

// FAQ is the localized question list grouped by category.
type FAQ struct {
	Lang       string
	Categories []FAQCategory
}

// FAQCategory is one accordion group.
type FAQCategory struct {
	ID    string
	Title string
	Items []FAQItem
}

// FAQItem is one question with its rendered answer.
type FAQItem struct {
	Question string
	Answer   template.HTML
	// Plain is the answer text without markup, used for structured data.
	Plain string
}

type faqFile struct {
	Categories []struct {
		ID    string `yaml:"id"`
		Title string `yaml:"title"`
		Items []struct {
			Q string `yaml:"q"`
			A string `yaml:"a"`
		} `yaml:"items"`
	} `yaml:"categories"`
}

// FAQ returns the questions for lang.
func (s *Store) FAQ(lang string) (FAQ, error) {
	v, err := s.load("faq:"+lang, func() (any, error) {
		var file faqFile
		got, err := s.decodeYAML(lang, "faq.yaml", &file)
		if err != nil {
			return nil, err
		}
		out := FAQ{Lang: got}
		for _, c := range file.Categories {
			cat := FAQCategory{ID: strings.TrimSpace(c.ID), Title: strings.TrimSpace(c.Title)}
			for _, it := range c.Items {
				cat.Items = append(cat.Items, FAQItem{
					Question: strings.TrimSpace(it.Q),
					Answer:   s.Render(it.A),
					Plain:    plainText(it.A),
				})
			}
			out.Categories = append(out.Categories, cat)
		}
		return out, nil
	})
	if err != nil {
		return FAQ{}, err
	}
	return v.(FAQ), nil
}

// Category returns the category with id, or the first one.
func (f FAQ) Category(id string) (FAQCategory, bool) {
	for _, c := range f.Categories {
		if c.ID == id {
			return c, true
		}
	}
	if len(f.Categories) > 0 {
		return f.Categories[0], false
	}
	return FAQCategory{}, false
}

// plainText strips the few Markdown marks used in answers.
func plainText(md string) string {
	r := strings.NewReplacer("**", "", "__", "", "`", "", "*", "", "#", "")
	out := r.Replace(md)
	// [label](url) -> label
	for {
		open := strings.Index(out, "[")
		mid := strings.Index(out, "](")
		if open < 0 || mid < open {
			break
		}
		end := strings.Index(out[mid:], ")")
		if end < 0 {
			break
		}
		out = out[:open] + out[open+1:mid] + out[mid+end+1:]
	}
	return strings.Join(strings.Fields(out), " ")
}
