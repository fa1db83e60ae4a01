package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// User is the backend's view of a subscriber.
type User struct {
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	Plan                  string    `json:"plan"`
	Status                string    `json:"status"`
	DailyQuotaRemaining   int       `json:"daily_quota_remaining"`
	MonthlyQuotaRemaining int       `json:"monthly_quota_remaining"`
	TrialEndsAt           time.Time `json:"trial_ends_at"`
}

// Job is one matched job posting.
type Job struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	Score     float64   `json:"score"`
	URL       string    `json:"url"`
	MatchedAt time.Time `json:"matched_at"`
}

// Packet is a bundle of generated application documents for one job.
type Packet struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	JobTitle  string    `json:"job_title"`
	Status    string    `json:"status"`
	Documents []string  `json:"documents"`
	CreatedAt time.Time `json:"created_at"`
}

// Health is the answer of /health.
type Health struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

// GetUser loads the subscriber identified by email.
func (c *Client) GetUser(ctx context.Context, email string) (User, error) {
	var out User
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/users",
		query:    url.Values{"email": {normalizeEmail(email)}},
		identity: normalizeEmail(email),
		out:      &out,
	})
	return out, err
}

// ListMatchedJobs returns the jobs matched for the user.
func (c *Client) ListMatchedJobs(ctx context.Context, email string) ([]Job, error) {
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/jobs/matches",
		query:    url.Values{"email": {normalizeEmail(email)}},
		identity: normalizeEmail(email),
		out:      &out,
	})
	return out.Jobs, err
}

// ListPackets returns the generated application packets for the user.
func (c *Client) ListPackets(ctx context.Context, email string) ([]Packet, error) {
	var out struct {
		Packets []Packet `json:"packets"`
	}
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/packets",
		query:    url.Values{"email": {normalizeEmail(email)}},
		identity: normalizeEmail(email),
		out:      &out,
	})
	return out.Packets, err
}

// Health reports backend health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, call{method: http.MethodGet, path: "/health", out: &out})
	return out, err
}
