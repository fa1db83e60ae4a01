package content

import (
	"html/template"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Page is a localized Markdown document such as the terms or privacy policy.
type Page struct {
	Slug      string
	Lang      string
	Title     string
	Summary   string
	Body      template.HTML
	UpdatedAt time.Time
}

type pageFrontMatter struct {
	Title     string `yaml:"title"`
	Summary   string `yaml:"summary"`
	UpdatedAt string `yaml:"updated_at"`
}

// Page returns <dir>/<lang>/pages/<slug>.md.
func (s *Store) Page(lang, slug string) (Page, error) {
	slug = sanitizeSlug(slug)
	if slug == "" {
		return Page{}, ErrNotFound
	}
	v, err := s.load("page:"+lang+":"+slug, func() (any, error) {
		raw, got, err := s.readLocalized(lang, "pages/"+slug+".md")
		if err != nil {
			return nil, err
		}
		fm, body := splitFrontMatter(string(raw))
		var front pageFrontMatter
		if strings.TrimSpace(fm) != "" {
			if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
				return nil, err
			}
		}
		page := Page{
			Slug:      slug,
			Lang:      got,
			Title:     strings.TrimSpace(front.Title),
			Summary:   strings.TrimSpace(front.Summary),
			Body:      s.Render(body),
			UpdatedAt: parseDate(front.UpdatedAt),
		}
		if page.Title == "" {
			page.Title = prettifySlug(slug)
		}
		return page, nil
	})
	if err != nil {
		return Page{}, err
	}
	return v.(Page), nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n\r")
		}
	}
	return "", input
}

func parseDate(v string) time.Time {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func prettifySlug(slug string) string {
	parts := strings.Split(slug, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
