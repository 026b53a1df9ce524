package writ

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a backend request when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

// MaxListCount is the largest page the backend serves to anonymous callers.
const MaxListCount = 50

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("writ: not found")

// ErrUnsaveable is returned by Save for writs that fail Saveable.
var ErrUnsaveable = errors.New("writ: cannot save an incomplete writ")

// APIError is a non-2xx backend response.
type APIError struct {
	Method string
	Path   string
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("writ: %s %s: %d %s", e.Method, e.Path, e.Status, e.Msg)
	}
	return fmt.Sprintf("writ: %s %s: %d", e.Method, e.Path, e.Status)
}

// Client talks to the writ backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	logger *slog.Logger
	tracer trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithToken sends token as the Auth cookie, which admin endpoints require.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) ClientOption {
	return func(c *Client) { c.tracer = t }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("writ: parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("writ: backend url %q must be http or https", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: slog.Default(),
		tracer: otel.Tracer("writdesk/writ"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Save creates or updates w.
func (c *Client) Save(ctx context.Context, w *Writ) error {
	if !w.Saveable() {
		return ErrUnsaveable
	}
	return c.do(ctx, http.MethodPost, "/writ", w, nil)
}

// Query runs q. A One query yields at most one writ.
func (c *Client) Query(ctx context.Context, q Query) ([]Writ, error) {
	if q.One {
		var w Writ
		if err := c.do(ctx, http.MethodPost, "/writ-query", q, &w); err != nil {
			return nil, err
		}
		if w.Key == "" {
			return nil, nil
		}
		return []Writ{w}, nil
	}
	var out []Writ
	if err := c.do(ctx, http.MethodPost, "/writ-query", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one writ by key, with private writs included.
func (c *Client) Get(ctx context.Context, key string) (*Writ, error) {
	writs, err := c.Query(ctx, EditorQuery(Query{One: true, Key: key}))
	if err != nil {
		return nil, err
	}
	if len(writs) == 0 {
		return nil, ErrNotFound
	}
	return &writs[0], nil
}

// Delete removes the writ with key.
func (c *Client) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("writ: delete: empty key")
	}
	return c.do(ctx, http.MethodGet, "/writ-delete/"+url.PathEscape(key), nil, nil)
}

// List returns a page of public writs as list entries.
func (c *Client) List(ctx context.Context, page, count int) ([]Writ, error) {
	return c.page(ctx, "/writlist", page, count)
}

// Writs returns a page of full public writs.
func (c *Client) Writs(ctx context.Context, page, count int) ([]Writ, error) {
	return c.page(ctx, "/writs", page, count)
}

func (c *Client) page(ctx context.Context, prefix string, page, count int) ([]Writ, error) {
	if page < 0 || count <= 0 || count > MaxListCount {
		return nil, fmt.Errorf("writ: invalid page %d/%d", page, count)
	}
	var out []Writ
	path := prefix + "/" + strconv.Itoa(page) + "/" + strconv.Itoa(count)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type okResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}

// CheckUsername reports whether username is available.
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	var res okResponse
	if err := c.do(ctx, http.MethodGet, "/check-username/"+url.PathEscape(username), nil, &res); err != nil {
		return false, err
	}
	return res.OK, nil
}

// Auth asks the backend to mail a login link and returns its message.
func (c *Client) Auth(ctx context.Context, email, username string) (string, error) {
	var res okResponse
	body := map[string]string{"email": email, "username": username}
	if err := c.do(ctx, http.MethodPost, "/auth", body, &res); err != nil {
		return "", err
	}
	if !res.OK {
		return "", &APIError{Method: http.MethodPost, Path: "/auth", Status: http.StatusUnauthorized, Msg: res.Msg}
	}
	return res.Msg, nil
}

// UpdateApp triggers a backend self update and returns the HTML report.
func (c *Client) UpdateApp(ctx context.Context) (string, error) {
	var report string
	if err := c.do(ctx, http.MethodGet, "/_updateapp", nil, &report); err != nil {
		return "", err
	}
	return report, nil
}

// do sends a request. A *string out receives the raw body; any other
// non-nil out is JSON decoded.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "writ.request", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("writ.path", path),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("writ: encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	u := *c.base
	u.Path += path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("writ: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: "Auth", Value: c.token})
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("writ: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("writ: read %s: %w", path, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
		var msg struct {
			Msg   string `json:"msg"`
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Msg = msg.Msg
			if apiErr.Msg == "" {
				apiErr.Msg = msg.Error
			}
		}
		return apiErr
	}

	switch v := out.(type) {
	case nil:
		return nil
	case *string:
		*v = string(data)
		return nil
	default:
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("writ: decode %s: %w", path, err)
		}
		return nil
	}
}
