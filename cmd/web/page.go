package main

import (
	"net/http"
	"net/url"
	"strings"

	handlersPkg "github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/handlers"
	mw "github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/middleware"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/nav"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/seo"
)

// basePage fills the layout fields shared by every page. Call it after the
// handler is done mutating the session: the CSRF token and user marker are
// read here.
func (s *server) basePage(r *http.Request, titleKey, descKey string) handlersPkg.PageData {
	lang := mw.Lang(r)
	sess := mw.GetSession(r)
	brand := s.cfg.Site.Name
	title := s.bundle.T(lang, titleKey)

	vm := handlersPkg.PageData{
		Title:       title,
		Lang:        lang,
		SiteName:    brand,
		Analytics:   handlersPkg.AnalyticsFromConfig(s.cfg.Analytics),
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path, sess.User != nil),
		Breadcrumbs: nav.Breadcrumbs(r.URL.Path),
		Languages:   s.bundle.Options(lang),
		CSRFToken:   sess.CSRFToken,
		User:        sess.User,
	}

	vm.SEO.Title = title + " | " + brand
	if r.URL.Path == "/" {
		vm.SEO.Title = brand + " | " + title
	}
	vm.SEO.Description = s.bundle.T(lang, descKey)
	vm.SEO.Canonical = s.absoluteURL(r, r.URL.Path)
	vm.SEO.OG = seo.OpenGraph{
		Title:       vm.SEO.Title,
		Description: vm.SEO.Description,
		Image:       s.absoluteURL(r, s.assets.URL("og.png")),
		Type:        "website",
		URL:         vm.SEO.Canonical,
		SiteName:    brand,
	}
	vm.SEO.Twitter = seo.Twitter{Card: "summary_large_image", Image: vm.SEO.OG.Image}
	vm.SEO.Alternates = s.alternates(r)
	return vm
}

// siteBaseURL prefers the configured public URL, then the request host.
func (s *server) siteBaseURL(r *http.Request) string {
	if s.cfg.Site.BaseURL != "" {
		return s.cfg.Site.BaseURL
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (s *server) absoluteURL(r *http.Request, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return s.siteBaseURL(r) + path
}

func (s *server) alternates(r *http.Request) []seo.Alternate {
	langs := s.bundle.Supported()
	out := make([]seo.Alternate, 0, len(langs)+1)
	for _, l := range langs {
		q := url.Values{}
		q.Set("lang", l)
		out = append(out, seo.Alternate{Href: s.absoluteURL(r, r.URL.Path) + "?" + q.Encode(), Hreflang: l})
	}
	out = append(out, seo.Alternate{Href: s.absoluteURL(r, r.URL.Path), Hreflang: "x-default"})
	return out
}

// safeNext keeps post-action redirects on this site.
func safeNext(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	return next
}

// redirect finishes a form post: htmx gets HX-Redirect, browsers a 303.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
