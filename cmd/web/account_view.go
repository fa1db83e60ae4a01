package main

import (
	"time"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/wizard"
)

// LoginView drives `/login`.
type LoginView struct {
	Email    string
	Sent     bool
	Code     []CodeBox
	Cooldown int
	Next     string
	Alert    *CheckoutInlineAlert
}

// DashboardView drives `/dashboard`.
type DashboardView struct {
	Email          string
	Name           string
	PlanName       string
	Status         string
	DailyQuota     int
	DailyRemaining int
	MonthlyQuota   int
	MonthlyLeft    int
	TrialEndsAt    time.Time
	Jobs           []apiclient.Job
	Packets        []apiclient.Packet
	Alert          *CheckoutInlineAlert
	CheckoutDone   bool
}

func buildLoginView(ls *wizard.LoginState, cooldown int, next string) LoginView {
	view := LoginView{Next: next, Cooldown: cooldown}
	if ls == nil {
		view.Code = codeBoxes(wizard.Code{}, 0)
		return view
	}
	view.Email = ls.Email
	view.Sent = ls.Sent
	view.Code = codeBoxes(ls.Code, ls.Focus)
	if ls.LastError != "" {
		view.Alert = &CheckoutInlineAlert{Tone: "error", Message: ls.LastError}
	}
	return view
}

func buildDashboardView(u apiclient.User, jobs []apiclient.Job, packets []apiclient.Packet) DashboardView {
	view := DashboardView{
		Email:          u.Email,
		Name:           u.Name,
		PlanName:       u.Plan,
		Status:         u.Status,
		DailyRemaining: u.DailyQuotaRemaining,
		MonthlyLeft:    u.MonthlyQuotaRemaining,
		TrialEndsAt:    u.TrialEndsAt,
		Jobs:           jobs,
		Packets:        packets,
	}
	if p, err := plans.Lookup(plans.ID(u.Plan)); err == nil {
		view.PlanName = p.Name
		view.DailyQuota = p.DailyQuota
		view.MonthlyQuota = p.MonthlyQuota
	}
	return view
}
