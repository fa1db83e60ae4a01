// Package nav builds the header navigation and breadcrumbs.
package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/pricing"
	LabelKey string // i18n key, e.g. "nav.pricing"
	// Private items are shown only to signed-in subscribers.
	Private bool
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/features", LabelKey: "nav.features"},
	{Path: "/pricing", LabelKey: "nav.pricing"},
	{Path: "/faq", LabelKey: "nav.faq"},
	{Path: "/dashboard", LabelKey: "nav.dashboard", Private: true},
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string, signedIn bool) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		if it.Private && !signedIn {
			continue
		}
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// sectionKeys names the sections that are not in the header.
var sectionKeys = map[string]string{
	"checkout": "nav.checkout",
	"login":    "nav.login",
	"status":   "nav.status",
	"legal":    "nav.legal",
}

// Breadcrumbs builds breadcrumb entries from the current path, always starting at Home.
func Breadcrumbs(currentPath string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}
	parts := strings.Split(strings.TrimPrefix(path.Clean(currentPath), "/"), "/")
	href := ""
	for i, seg := range parts {
		if seg == "" {
			continue
		}
		href += "/" + seg
		c := Crumb{Href: href, Label: titleFromSegment(seg), Active: i == len(parts)-1}
		if i == 0 {
			c.LabelKey = sectionKeys[seg]
			for _, it := range Main {
				if it.Path == href {
					c.LabelKey = it.LabelKey
				}
			}
		}
		crumbs = append(crumbs, c)
	}
	return crumbs
}

func titleFromSegment(seg string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
