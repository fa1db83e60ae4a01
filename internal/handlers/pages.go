// Package handlers holds the view models shared by every page template.
package handlers

import (
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/i18n"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/nav"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/seo"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/session"
)

// PageData is a generic view model for pages using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	SEO       seo.Meta
	Analytics Analytics
	SiteName  string

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	Languages   []i18n.Option
	CSRFToken   string
	User        *session.User
	// Flash is a one-off notice rendered above the content.
	Flash string

	// Optional per-page view model payloads
	Home      any
	Pricing   any
	Features  any
	FAQ       any
	Checkout  any
	Dashboard any
	Login     any
	Status    any
	Content   any
}
