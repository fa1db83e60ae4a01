package main

import (
	"time"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/wizard"
)

// CheckoutView drives every step of `/checkout`.
type CheckoutView struct {
	Step     string
	Number   int
	Steps    []CheckoutStep
	Plan     PlanCard
	Name     string
	Email    string
	Code     []CodeBox
	CodeFull bool
	// Verified means the code was accepted and only account setup is left.
	Verified bool
	Cooldown int
	Payment  CheckoutPaymentState
	Alert    *CheckoutInlineAlert
	// Notice is informational, e.g. an unknown plan in the query.
	Notice      string
	TrialEndsAt time.Time
}

// CheckoutStep is one entry of the progress indicator.
type CheckoutStep struct {
	Key       string
	LabelKey  string
	Number    int
	Active    bool
	Completed bool
}

// CodeBox is one of the six verification code inputs.
type CodeBox struct {
	Index     int
	Value     string
	Autofocus bool
}

// CheckoutPaymentState is what the payment element needs.
type CheckoutPaymentState struct {
	SetupIntentID  string
	ClientSecret   string
	PublishableKey string
	// TestMode replaces the card element with a confirmation button when
	// no real payment provider is configured.
	TestMode bool
}

// CheckoutInlineAlert is an error rendered next to the step form.
type CheckoutInlineAlert struct {
	Tone    string
	Kind    string
	Message string
}

var checkoutOrder = []wizard.Step{wizard.StepEmail, wizard.StepVerify, wizard.StepPayment, wizard.StepComplete}

func checkoutSteps(active wizard.Step) []CheckoutStep {
	steps := make([]CheckoutStep, 0, len(checkoutOrder))
	for _, st := range checkoutOrder {
		steps = append(steps, CheckoutStep{
			Key:       st.String(),
			LabelKey:  "checkout.step." + st.String(),
			Number:    st.Number(),
			Active:    st == active,
			Completed: st < active || active == wizard.StepComplete,
		})
	}
	return steps
}

func codeBoxes(code wizard.Code, focus int) []CodeBox {
	boxes := make([]CodeBox, wizard.CodeLength)
	for i := range boxes {
		boxes[i] = CodeBox{Index: i, Value: code[i], Autofocus: i == focus}
	}
	return boxes
}

func buildCheckoutView(st *wizard.State, cooldown int) CheckoutView {
	view := CheckoutView{
		Step:        st.Step.String(),
		Number:      st.Step.Number(),
		Steps:       checkoutSteps(st.Step),
		Plan:        buildPlanCard(st.Selection().Resolve(), st.Cycle),
		Name:        st.Name,
		Email:       st.Email,
		Code:        codeBoxes(st.Code, st.Focus),
		CodeFull:    st.Code.Complete(),
		Verified:    st.Verified,
		Cooldown:    cooldown,
		TrialEndsAt: st.TrialEndsAt,
		Payment: CheckoutPaymentState{
			SetupIntentID: st.SetupIntentID,
			ClientSecret:  st.ClientSecret,
		},
	}
	if st.LastError != "" {
		view.Alert = &CheckoutInlineAlert{Tone: "error", Message: st.LastError}
	}
	return view
}
