// Package plans defines the closed set of subscription plans sold on the site.
package plans

import (
	"errors"
	"net/url"
	"strings"
)

// ID identifies a plan variant. Only the constants below are valid.
type ID string

const (
	Starter ID = "starter"
	Pro     ID = "pro"
	Elite   ID = "elite"
)

// Cycle is the billing cadence chosen on the pricing page.
type Cycle string

const (
	Monthly Cycle = "monthly"
	Annual  Cycle = "annual"
)

// DefaultPlan is used when the query names no plan.
const DefaultPlan = Pro

// ErrUnknownPlan is returned when an identifier is not part of the catalog.
var ErrUnknownPlan = errors.New("plans: unknown plan")

// Plan carries the display and quota attributes of one variant.
// Prices are whole US cents.
type Plan struct {
	ID           ID
	Name         string
	MonthlyPrice int64
	// AnnualPrice is the effective monthly price when billed yearly.
	AnnualPrice  int64
	DailyQuota   int
	MonthlyQuota int
	TrialDays    int
	Featured     bool
	FeatureKeys  []string
}

var catalog = []Plan{
	{
		ID:           Starter,
		Name:         "Starter",
		MonthlyPrice: 1900,
		AnnualPrice:  1500,
		DailyQuota:   5,
		MonthlyQuota: 100,
		TrialDays:    7,
		FeatureKeys:  []string{"plan.feature.matching", "plan.feature.resume"},
	},
	{
		ID:           Pro,
		Name:         "Pro",
		MonthlyPrice: 3900,
		AnnualPrice:  3100,
		DailyQuota:   15,
		MonthlyQuota: 300,
		TrialDays:    7,
		Featured:     true,
		FeatureKeys:  []string{"plan.feature.matching", "plan.feature.resume", "plan.feature.cover", "plan.feature.interview"},
	},
	{
		ID:           Elite,
		Name:         "Elite",
		MonthlyPrice: 7900,
		AnnualPrice:  6300,
		DailyQuota:   40,
		MonthlyQuota: 1000,
		TrialDays:    14,
		FeatureKeys:  []string{"plan.feature.matching", "plan.feature.resume", "plan.feature.cover", "plan.feature.interview", "plan.feature.priority"},
	},
}

// All returns the catalog in display order.
func All() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the plan for id.
func Lookup(id ID) (Plan, error) {
	for _, p := range catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, ErrUnknownPlan
}

// MustLookup is Lookup for identifiers known to be valid, such as the package constants.
func MustLookup(id ID) Plan {
	p, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseID normalises a raw identifier and checks it against the catalog.
func ParseID(raw string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(raw)))
	if _, err := Lookup(id); err != nil {
		return "", err
	}
	return id, nil
}

// ParseCycle returns the cycle for raw, defaulting to Monthly.
func ParseCycle(raw string) Cycle {
	switch Cycle(strings.ToLower(strings.TrimSpace(raw))) {
	case Annual, "yearly", "year":
		return Annual
	default:
		return Monthly
	}
}

// Price returns the per-month price in cents for the cycle.
func (p Plan) Price(c Cycle) int64 {
	if c == Annual {
		return p.AnnualPrice
	}
	return p.MonthlyPrice
}

// AnnualSavings returns how much a year costs less when billed annually.
func (p Plan) AnnualSavings() int64 {
	return (p.MonthlyPrice - p.AnnualPrice) * 12
}

// Selection is the plan and billing cycle chosen for a checkout.
type Selection struct {
	Plan  ID    `json:"plan"`
	Cycle Cycle `json:"cycle"`
}

// FromQuery reads plan and cycle from query parameters. Unknown plans fall back to
// DefaultPlan and report the error so callers can surface it.
func FromQuery(q url.Values) (Selection, error) {
	sel := Selection{Plan: DefaultPlan, Cycle: ParseCycle(q.Get("cycle"))}
	raw := strings.TrimSpace(q.Get("plan"))
	if raw == "" {
		return sel, nil
	}
	id, err := ParseID(raw)
	if err != nil {
		return sel, err
	}
	sel.Plan = id
	return sel, nil
}

// Resolve returns the plan of the selection, falling back to DefaultPlan.
func (s Selection) Resolve() Plan {
	if p, err := Lookup(s.Plan); err == nil {
		return p
	}
	return MustLookup(DefaultPlan)
}

// Query renders the selection as query parameters.
func (s Selection) Query() url.Values {
	q := url.Values{}
	q.Set("plan", string(s.Plan))
	if s.Cycle == Annual {
		q.Set("cycle", string(Annual))
	}
	return q
}
