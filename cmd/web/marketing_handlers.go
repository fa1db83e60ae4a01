package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/content"
	mw "github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/middleware"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/observability"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/seo"
)

const homeFAQItems = 3

// handleHome renders the landing page.
func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	logger := observability.FromContext(r.Context())
	home := HomeView{Plans: buildPlanCards(plans.Monthly)}

	if f, err := s.content.Features(lang); err == nil {
		home.Features = f.Tabs
	} else {
		logger.Warn("features content unavailable", zap.Error(err))
	}
	if faq, err := s.content.FAQ(lang); err == nil {
		for _, c := range faq.Categories {
			for _, it := range c.Items {
				if len(home.FAQ) == homeFAQItems {
					break
				}
				home.FAQ = append(home.FAQ, it)
			}
		}
	} else {
		logger.Warn("faq content unavailable", zap.Error(err))
	}

	vm := s.basePage(r, "home.title", "home.desc")
	vm.Home = home
	vm.SEO.JSONLD = []string{seo.JSON(seo.Organization(s.cfg.Site.Name, s.siteBaseURL(r), ""))}
	s.renderPage(w, r, http.StatusOK, "home", vm)
}

// handlePricing renders the plan table. htmx toggles of ?cycle swap only
// the table.
func (s *server) handlePricing(w http.ResponseWriter, r *http.Request) {
	view := buildPricingView(r.URL.Query())
	vm := s.basePage(r, "pricing.title", "pricing.desc")
	vm.Pricing = view
	vm.SEO.JSONLD = []string{seo.JSON(seo.Product(s.cfg.Site.Name, vm.SEO.Description, planOffers(view.Plans, s.siteBaseURL(r))))}

	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Push-Url", "/pricing?cycle="+string(view.Cycle))
		s.renderTemplate(w, r, http.StatusOK, "c_pricing_plans", vm)
		return
	}
	s.renderPage(w, r, http.StatusOK, "pricing", vm)
}

// handleFeatures renders the tabbed feature tour.
func (s *server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	f, err := s.content.Features(lang)
	if err != nil {
		observability.FromContext(r.Context()).Error("load features", zap.Error(err))
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}
	view := buildFeaturesView(f, r.URL.Query().Get("tab"))
	vm := s.basePage(r, "features.title", "features.desc")
	vm.Features = view

	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Push-Url", "/features?tab="+view.Active.ID)
		s.renderTemplate(w, r, http.StatusOK, "c_feature_panel", vm)
		return
	}
	s.renderPage(w, r, http.StatusOK, "features", vm)
}

// handleFAQ renders the accordion for one category.
func (s *server) handleFAQ(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	faq, err := s.content.FAQ(lang)
	if err != nil {
		observability.FromContext(r.Context()).Error("load faq", zap.Error(err))
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}
	view := buildFAQView(faq, r.URL.Query())
	vm := s.basePage(r, "faq.title", "faq.desc")
	vm.FAQ = view

	var questions []seo.Question
	for _, c := range faq.Categories {
		for _, it := range c.Items {
			questions = append(questions, seo.Question{Name: it.Question, Answer: it.Plain})
		}
	}
	vm.SEO.JSONLD = []string{seo.JSON(seo.FAQPage(questions))}

	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Push-Url", r.URL.RequestURI())
		s.renderTemplate(w, r, http.StatusOK, "c_faq_list", vm)
		return
	}
	s.renderPage(w, r, http.StatusOK, "faq", vm)
}

// handleLegal renders Markdown documents such as the terms of service.
func (s *server) handleLegal(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	page, err := s.content.Page(lang, chi.URLParam(r, "slug"))
	if errors.Is(err, content.ErrNotFound) {
		s.renderError(w, r, http.StatusNotFound)
		return
	}
	if err != nil {
		observability.FromContext(r.Context()).Error("load legal page", zap.Error(err))
		s.renderError(w, r, http.StatusInternalServerError)
		return
	}
	vm := s.basePage(r, "legal.title", "legal.desc")
	vm.Title = page.Title
	vm.SEO.Title = page.Title + " | " + s.cfg.Site.Name
	if page.Summary != "" {
		vm.SEO.Description = page.Summary
	}
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Description = vm.SEO.Description
	vm.SEO.OG.Type = "article"
	vm.Content = page
	s.renderPage(w, r, http.StatusOK, "legal", vm)
}

// handleLang switches the interface language and returns to the page.
func (s *server) handleLang(w http.ResponseWriter, r *http.Request) {
	lang := s.bundle.Normalize(r.PostFormValue("lang"))
	if lang == "" {
		observability.WriteError(w, r, http.StatusBadRequest, "unsupported language")
		return
	}
	mw.SetLang(w, r, lang, s.cfg.Session.Secure)
	next := safeNext(r.PostFormValue("next"), "/")
	if mw.IsHTMX(r.Context()) {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound)
}

// renderError renders the error page for 404 and 5xx responses.
func (s *server) renderError(w http.ResponseWriter, r *http.Request, code int) {
	key := "error.server"
	if code == http.StatusNotFound {
		key = "error.not_found"
	}
	vm := s.basePage(r, key+".title", key+".desc")
	vm.SEO.Robots = "noindex"
	vm.Content = map[string]any{"Code": code, "Key": key}
	if mw.IsHTMX(r.Context()) {
		observability.WriteError(w, r, code, s.bundle.T(vm.Lang, key+".title"))
		return
	}
	s.renderPage(w, r, code, "error", vm)
}
