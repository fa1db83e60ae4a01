package wizard

import (
	"errors"
	"fmt"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
)

var (
	// ErrWrongStep is returned when an operation does not apply to the current step.
	ErrWrongStep = errors.New("wizard: operation not allowed at this step")
	// ErrCooldown rejects a resend while the cooldown is running.
	ErrCooldown = errors.New("wizard: resend cooldown active")
	// ErrBusy rejects a submit while another one for the same session is in flight.
	ErrBusy = errors.New("wizard: request already in progress")
)

// ErrorKind is the flat error taxonomy shown to the visitor.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindServer     ErrorKind = "server"
	KindNetwork    ErrorKind = "network"
	KindCooldown   ErrorKind = "cooldown"
	KindBusy       ErrorKind = "busy"
)

// ValidationError is raised before any backend call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("wizard: invalid %s: %s", e.Field, e.Message)
}

// Classify maps err onto the visitor-facing taxonomy.
func Classify(err error) ErrorKind {
	var apiErr *apiclient.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCooldown):
		return KindCooldown
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.As(err, &apiErr):
		if apiErr.Kind == apiclient.KindServer {
			return KindServer
		}
		return KindNetwork
	default:
		return KindValidation
	}
}

// Message returns the inline text rendered next to the step form.
func Message(err error) string {
	var (
		vErr   *ValidationError
		apiErr *apiclient.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.As(err, &apiErr):
		return apiErr.UserMessage()
	case errors.Is(err, ErrCooldown):
		return "Please wait before requesting another code."
	case errors.Is(err, ErrBusy):
		return "We're still working on your last request."
	case errors.Is(err, ErrWrongStep):
		return "This step is no longer available. Please continue from here."
	default:
		return "Something went wrong. Please try again."
	}
}
