package content

import (
	"html/template"
	"strings"
)

// Features is the localized tab set of the features page.
type Features struct {
	Lang string
	Tabs []FeatureTab
}

// FeatureTab is one switchable panel.
type FeatureTab struct {
	ID      string
	Title   string
	Icon    string
	Summary string
	Body    template.HTML
	Bullets []string
}

type featuresFile struct {
	Tabs []struct {
		ID      string   `yaml:"id"`
		Title   string   `yaml:"title"`
		Icon    string   `yaml:"icon"`
		Summary string   `yaml:"summary"`
		Body    string   `yaml:"body"`
		Bullets []string `yaml:"bullets"`
	} `yaml:"tabs"`
}

// Features returns the feature tabs for lang.
func (s *Store) Features(lang string) (Features, error) {
	v, err := s.load("features:"+lang, func() (any, error) {
		var file featuresFile
		got, err := s.decodeYAML(lang, "features.yaml", &file)
		if err != nil {
			return nil, err
		}
		out := Features{Lang: got}
		for _, t := range file.Tabs {
			out.Tabs = append(out.Tabs, FeatureTab{
				ID:      strings.TrimSpace(t.ID),
				Title:   strings.TrimSpace(t.Title),
				Icon:    strings.TrimSpace(t.Icon),
				Summary: strings.TrimSpace(t.Summary),
				Body:    s.Render(t.Body),
				Bullets: t.Bullets,
			})
		}
		return out, nil
	})
	if err != nil {
		return Features{}, err
	}
	return v.(Features), nil
}

// Tab returns the tab with id, falling back to the first tab.
func (f Features) Tab(id string) FeatureTab {
	for _, t := range f.Tabs {
		if t.ID == id {
			return t
		}
	}
	if len(f.Tabs) > 0 {
		return f.Tabs[0]
	}
	return FeatureTab{}
}
