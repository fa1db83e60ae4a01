package main

import (
	"html/template"
	"net/url"
	"strconv"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/content"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/seo"
)

// PlanCard is one column of the pricing table.
type PlanCard struct {
	ID           plans.ID
	Name         string
	Cycle        plans.Cycle
	Price        int64
	MonthlyPrice int64
	Savings      int64
	DailyQuota   int
	MonthlyQuota int
	TrialDays    int
	Featured     bool
	FeatureKeys  []string
	CheckoutURL  string
}

// PricingView drives the pricing table and its billing toggle.
type PricingView struct {
	Cycle      plans.Cycle
	Annual     bool
	MonthlyURL string
	AnnualURL  string
	Plans      []PlanCard
}

// HomeView drives the landing page.
type HomeView struct {
	Plans    []PlanCard
	Features []content.FeatureTab
	FAQ      []content.FAQItem
}

// FeatureTabLink is one entry of the features tab bar.
type FeatureTabLink struct {
	ID     string
	Title  string
	Icon   string
	Href   string
	Active bool
}

// FeaturesView drives `/features`.
type FeaturesView struct {
	Tabs   []FeatureTabLink
	Active content.FeatureTab
}

// FAQCategoryLink is one category pill.
type FAQCategoryLink struct {
	ID     string
	Title  string
	Href   string
	Active bool
}

// FAQItemView is one accordion entry. Href toggles it open or closed.
type FAQItemView struct {
	Index    int
	Question string
	Answer   template.HTML
	Open     bool
	Href     string
}

// FAQView drives `/faq`.
type FAQView struct {
	Categories []FAQCategoryLink
	Active     string
	Items      []FAQItemView
}

func buildPlanCard(p plans.Plan, cycle plans.Cycle) PlanCard {
	sel := plans.Selection{Plan: p.ID, Cycle: cycle}
	return PlanCard{
		ID:           p.ID,
		Name:         p.Name,
		Cycle:        cycle,
		Price:        p.Price(cycle),
		MonthlyPrice: p.MonthlyPrice,
		Savings:      p.AnnualSavings(),
		DailyQuota:   p.DailyQuota,
		MonthlyQuota: p.MonthlyQuota,
		TrialDays:    p.TrialDays,
		Featured:     p.Featured,
		FeatureKeys:  p.FeatureKeys,
		CheckoutURL:  "/checkout?" + sel.Query().Encode(),
	}
}

func buildPlanCards(cycle plans.Cycle) []PlanCard {
	all := plans.All()
	cards := make([]PlanCard, 0, len(all))
	for _, p := range all {
		cards = append(cards, buildPlanCard(p, cycle))
	}
	return cards
}

func buildPricingView(q url.Values) PricingView {
	cycle := plans.ParseCycle(q.Get("cycle"))
	return PricingView{
		Cycle:      cycle,
		Annual:     cycle == plans.Annual,
		MonthlyURL: "/pricing?cycle=" + string(plans.Monthly),
		AnnualURL:  "/pricing?cycle=" + string(plans.Annual),
		Plans:      buildPlanCards(cycle),
	}
}

func buildFeaturesView(f content.Features, requested string) FeaturesView {
	active := f.Tab(requested)
	tabs := make([]FeatureTabLink, 0, len(f.Tabs))
	for _, t := range f.Tabs {
		tabs = append(tabs, FeatureTabLink{
			ID:     t.ID,
			Title:  t.Title,
			Icon:   t.Icon,
			Href:   "/features?tab=" + url.QueryEscape(t.ID),
			Active: t.ID == active.ID,
		})
	}
	return FeaturesView{Tabs: tabs, Active: active}
}

// buildFAQView resolves ?category and ?open. The open index is taken within
// the active category; an out of range or missing index leaves all closed.
func buildFAQView(f content.FAQ, q url.Values) FAQView {
	view := FAQView{}
	if len(f.Categories) == 0 {
		return view
	}
	cat, ok := f.Category(q.Get("category"))
	if !ok {
		cat = f.Categories[0]
	}
	view.Active = cat.ID
	for _, c := range f.Categories {
		view.Categories = append(view.Categories, FAQCategoryLink{
			ID:     c.ID,
			Title:  c.Title,
			Href:   "/faq?category=" + url.QueryEscape(c.ID),
			Active: c.ID == cat.ID,
		})
	}

	open := -1
	if raw := q.Get("open"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n < len(cat.Items) {
			open = n
		}
	}
	for i, item := range cat.Items {
		v := url.Values{}
		v.Set("category", cat.ID)
		if i != open {
			v.Set("open", strconv.Itoa(i))
		}
		view.Items = append(view.Items, FAQItemView{
			Index:    i,
			Question: item.Question,
			Answer:   item.Answer,
			Open:     i == open,
			Href:     "/faq?" + v.Encode(),
		})
	}
	return view
}

func planOffers(cards []PlanCard, base string) []seo.Offer {
	out := make([]seo.Offer, 0, len(cards))
	for _, c := range cards {
		out = append(out, seo.Offer{Name: c.Name, Cents: c.Price, Currency: "USD", URL: base + c.CheckoutURL})
	}
	return out
}
