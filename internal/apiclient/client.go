package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultIdentityHeader = "X-User-Email"
	idempotencyHeader     = "Idempotency-Key"
)

var tracer = otel.Tracer("github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient")

// Observer receives one callback per backend call.
type Observer func(endpoint, outcome string, took time.Duration)

// Client issues calls against the JobConcierge REST API.
type Client struct {
	baseURL        string
	http           *http.Client
	timeout        time.Duration
	identityHeader string
	observe        Observer
	fake           bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithIdentityHeader overrides the header carrying the signed-in user's email.
func WithIdentityHeader(name string) Option {
	return func(c *Client) {
		if strings.TrimSpace(name) != "" {
			c.identityHeader = strings.TrimSpace(name)
		}
	}
}

// WithObserver registers a metrics callback.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// New constructs an API client. When baseURL is empty the client talks to an
// in-process fake backend so the site works without the real API.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:           &http.Client{},
		timeout:        defaultTimeout,
		identityHeader: defaultIdentityHeader,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = "http://fake.backend.invalid"
		c.http = &http.Client{Transport: handlerTransport{handler: NewFakeBackend()}}
		c.fake = true
	}
	return c
}

// Fake reports whether the client is backed by the in-process fake.
func (c *Client) Fake() bool { return c.fake }

// call describes one backend request.
type call struct {
	method         string
	path           string
	query          url.Values
	identity       string
	idempotencyKey string
	body           any
	out            any
}

func (c *Client) do(ctx context.Context, req call) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "backend "+req.path, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("http.request.method", req.method), attribute.String("backend.endpoint", req.path))
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			if apiErr, ok := err.(*Error); ok {
				outcome = string(apiErr.Kind)
				if apiErr.Status > 0 {
					span.SetAttributes(attribute.Int("http.response.status_code", apiErr.Status))
				}
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
		if c.observe != nil {
			c.observe(req.path, outcome, time.Since(start))
		}
	}()

	endpoint, err := url.JoinPath(c.baseURL, req.path)
	if err != nil {
		return requestError(req.path, fmt.Errorf("build url: %w", err))
	}
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return requestError(req.path, fmt.Errorf("encode body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return requestError(req.path, fmt.Errorf("new request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if id := strings.TrimSpace(req.identity); id != "" {
		httpReq.Header.Set(c.identityHeader, id)
	}
	if key := strings.TrimSpace(req.idempotencyKey); key != "" {
		httpReq.Header.Set(idempotencyHeader, key)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return transportError(req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(req.path, resp)
	}
	if req.out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(req.out); err != nil && err != io.EOF {
		if ctx.Err() != nil {
			return transportError(req.path, ctx.Err())
		}
		return &Error{Kind: KindServer, Endpoint: req.path, Status: resp.StatusCode, Message: "invalid response from server", Err: err}
	}
	return nil
}

// handlerTransport serves requests from an in-process handler.
type handlerTransport struct {
	handler http.Handler
}

func (t handlerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	rec := &memoryResponse{header: http.Header{}, status: http.StatusOK}
	t.handler.ServeHTTP(rec, req)
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", rec.status, http.StatusText(rec.status)),
		StatusCode:    rec.status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        rec.header,
		Body:          io.NopCloser(bytes.NewReader(rec.body.Bytes())),
		ContentLength: int64(rec.body.Len()),
		Request:       req,
	}, nil
}

type memoryResponse struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func (m *memoryResponse) Header() http.Header { return m.header }

func (m *memoryResponse) Write(b []byte) (int, error) {
	m.wroteHeader = true
	return m.body.Write(b)
}

func (m *memoryResponse) WriteHeader(code int) {
	if m.wroteHeader {
		return
	}
	m.status = code
	m.wroteHeader = true
}
