package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// ErrorKind classifies every failed backend call.
type ErrorKind string

const (
	// KindNetwork covers connection failures and cancelled requests.
	KindNetwork ErrorKind = "network"
	// KindTimeout means the backend did not answer within the client timeout.
	KindTimeout ErrorKind = "timeout"
	// KindServer is any non-2xx answer.
	KindServer ErrorKind = "server"
)

// Error is the single error shape returned by Client methods.
type Error struct {
	Kind     ErrorKind
	Endpoint string
	Status   int
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		return fmt.Sprintf("apiclient: %s returned %d: %s", e.Endpoint, e.Status, e.Message)
	default:
		if e.Err != nil {
			return fmt.Sprintf("apiclient: %s %s: %v", e.Endpoint, e.Kind, e.Err)
		}
		return fmt.Sprintf("apiclient: %s %s", e.Endpoint, e.Kind)
	}
}

// Unwrap exposes the transport error, if any.
func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns text suitable for rendering next to a form.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "The server took too long to respond. Please try again."
	case KindNetwork:
		return "We couldn't reach the server. Check your connection and try again."
	default:
		if strings.TrimSpace(e.Message) != "" {
			return e.Message
		}
		return "Something went wrong. Please try again."
	}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

// StatusCode returns the HTTP status of a server error, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func transportError(endpoint string, err error) *Error {
	kind := KindNetwork
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Endpoint: endpoint, Err: err}
}

// requestError covers failures before the request leaves the process.
func requestError(endpoint string, err error) *Error {
	return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
}

// serverError reads the error body and extracts the `detail` message.
func serverError(endpoint string, resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &Error{
		Kind:     KindServer,
		Endpoint: endpoint,
		Status:   resp.StatusCode,
		Message:  errorMessage(raw, resp.StatusCode),
	}
}

func errorMessage(raw []byte, status int) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := detailText(body.Detail); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(body.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return msg
		}
	}
	return http.StatusText(status)
}

// detailText accepts both `"detail": "text"` and validation lists `"detail": [{"msg": "text"}]`.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if m := strings.TrimSpace(item.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
