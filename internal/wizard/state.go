package wizard

import (
	"fmt"
	"strings"
	"time"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
)

// ResendCooldown is how long the visitor waits before another code can be sent.
const ResendCooldown = 60 * time.Second

// Step is a position in the checkout flow.
type Step int

const (
	StepEmail Step = iota
	StepVerify
	StepPayment
	StepComplete
)

var stepNames = [...]string{"email", "verify", "payment", "complete"}

func (s Step) String() string {
	if s < StepEmail || s > StepComplete {
		return "unknown"
	}
	return stepNames[s]
}

// Number is the 1-based position shown in the progress indicator.
func (s Step) Number() int { return int(s) + 1 }

// MarshalText encodes the step by name so stored sessions stay readable.
func (s Step) MarshalText() ([]byte, error) {
	if s.String() == "unknown" {
		return nil, fmt.Errorf("wizard: invalid step %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a step name.
func (s *Step) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range stepNames {
		if n == name {
			*s = Step(i)
			return nil
		}
	}
	return fmt.Errorf("wizard: unknown step %q", name)
}

// State is the checkout session of one visitor.
type State struct {
	Step       Step        `json:"step"`
	Name       string      `json:"name,omitempty"`
	Email      string      `json:"email,omitempty"`
	CustomerID string      `json:"customerId,omitempty"`
	Code       Code        `json:"code"`
	Focus      int         `json:"focus"`
	CodeSentAt time.Time   `json:"codeSentAt,omitempty"`
	Plan       plans.ID    `json:"plan"`
	Cycle      plans.Cycle `json:"cycle"`

	// Verified is recorded as soon as verify-code succeeds so a failed
	// customer creation can be retried without a new code.
	Verified       bool      `json:"verified,omitempty"`
	SetupIntentID  string    `json:"setupIntentId,omitempty"`
	ClientSecret   string    `json:"clientSecret,omitempty"`
	SubscriptionID string    `json:"subscriptionId,omitempty"`
	TrialEndsAt    time.Time `json:"trialEndsAt,omitempty"`
	ProvisionKey   string    `json:"provisionKey"`
	Attempts       int       `json:"attempts,omitempty"`
	LastError      string    `json:"lastError,omitempty"`
}

// Selection returns the plan chosen at the start of the session.
func (s *State) Selection() plans.Selection {
	return plans.Selection{Plan: s.Plan, Cycle: s.Cycle}
}

// Cooldown returns the whole seconds left before a resend is allowed.
// It starts at 60 right after a send, drops by one per elapsed second and
// never goes below zero.
func (s *State) Cooldown(now time.Time) int {
	if s == nil {
		return 0
	}
	return cooldownLeft(s.CodeSentAt, now)
}

func cooldownLeft(sentAt, now time.Time) int {
	if sentAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(sentAt)
	if elapsed < 0 {
		elapsed = 0
	}
	left := int(ResendCooldown/time.Second) - int(elapsed/time.Second)
	if left < 0 {
		return 0
	}
	return left
}

func (s *State) idempotencyKey(op string) string {
	return s.ProvisionKey + ":" + op
}
