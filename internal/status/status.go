// Package status summarizes backend health for the public status page.
package status

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
)

// State values rendered by the status page.
const (
	StateOperational = "operational"
	StateDegraded    = "degraded"
	StateOutage      = "outage"
)

// Summary captures an overview of the platform status.
type Summary struct {
	State string
	// StateKey is the i18n key of the headline.
	StateKey   string
	Version    string
	UpdatedAt  time.Time
	Components []Component
	// Error is the reason the backend could not be reached, if any.
	Error string
}

// Component represents the status of an individual subsystem.
type Component struct {
	Name   string
	Status string
	OK     bool
}

// HealthSource is the backend health endpoint.
type HealthSource interface {
	Health(ctx context.Context) (apiclient.Health, error)
}

// Checker caches backend health for a short time.
type Checker struct {
	src      HealthSource
	ttl      time.Duration
	errorTTL time.Duration
	now      func() time.Time

	mu      sync.Mutex
	cached  Summary
	expires time.Time
}

// NewChecker builds a checker caching healthy answers for ttl and failures for a quarter of it.
func NewChecker(src HealthSource, ttl time.Duration) *Checker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Checker{src: src, ttl: ttl, errorTTL: ttl / 4, now: time.Now}
}

// Summary returns the cached summary or asks the backend.
func (c *Checker) Summary(ctx context.Context) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Before(c.expires) {
		return cloneSummary(c.cached)
	}

	h, err := c.src.Health(ctx)
	sum := Summary{UpdatedAt: now.UTC()}
	ttl := c.ttl
	if err != nil {
		sum.State = StateOutage
		sum.Error = errorText(err)
		ttl = c.errorTTL
	} else {
		sum = fromHealth(h, now)
	}
	sum.StateKey = "status.state." + sum.State
	c.cached = sum
	c.expires = now.Add(ttl)
	return cloneSummary(sum)
}

func fromHealth(h apiclient.Health, now time.Time) Summary {
	sum := Summary{Version: strings.TrimSpace(h.Version), UpdatedAt: now.UTC()}
	names := make([]string, 0, len(h.Components))
	for name := range h.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	healthy := 0
	for _, name := range names {
		st := strings.ToLower(strings.TrimSpace(h.Components[name]))
		ok := isHealthy(st)
		if ok {
			healthy++
		}
		sum.Components = append(sum.Components, Component{Name: name, Status: st, OK: ok})
	}
	switch {
	case !isHealthy(strings.ToLower(h.Status)):
		sum.State = StateDegraded
	case healthy < len(sum.Components):
		sum.State = StateDegraded
	default:
		sum.State = StateOperational
	}
	return sum
}

func isHealthy(s string) bool {
	switch strings.TrimSpace(s) {
	case "ok", "healthy", "up", "operational":
		return true
	}
	return false
}

func errorText(err error) string {
	if apiErr, ok := err.(*apiclient.Error); ok {
		return apiErr.UserMessage()
	}
	return err.Error()
}

func cloneSummary(src Summary) Summary {
	cp := src
	if len(src.Components) > 0 {
		cp.Components = make([]Component, len(src.Components))
		copy(cp.Components, src.Components)
	}
	return cp
}
