package fooddelivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fooddelivery-client/internal/auth"
	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultCategoriesPath is the restaurant categories endpoint.
	DefaultCategoriesPath = "/api/restaurants/categories"
	DefaultTimeout        = 15 * time.Second

	responseLogLimit = 512
)

// Credentials supplies the bearer token and x-user-id of the caller.
type Credentials interface {
	Credentials(ctx context.Context) (token, userID string)
}

// StaticCredentials always sends the same token and user id.
type StaticCredentials struct {
	Token  string
	UserID string
}

func (s StaticCredentials) Credentials(context.Context) (string, string) {
	token, userID := s.Token, s.UserID
	if token == "" {
		token = auth.DefaultToken
	}
	if userID == "" {
		userID = auth.FallbackUserID
	}
	return token, userID
}

// Client talks to the food delivery REST backend. Every method resolves to
// an envelope; none of them returns an error or panics on bad input.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	categoriesPath string
	creds          Credentials
	limiter        *rate.Limiter
	metrics        *metrics.Metrics
	log            *zap.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCredentials sets where token and user id come from.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) {
		if creds != nil {
			c.creds = creds
		}
	}
}

// WithRateLimiter throttles outgoing requests. Waiting for a token honours
// the request context.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithCategoriesPath overrides DefaultCategoriesPath.
func WithCategoriesPath(path string) Option {
	return func(c *Client) {
		if p := strings.TrimSpace(path); p != "" {
			c.categoriesPath = "/" + strings.TrimLeft(p, "/")
		}
	}
}

// NewClient builds a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, ErrBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &Client{
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		baseURL:        trimmed,
		categoriesPath: DefaultCategoriesPath,
		creds:          StaticCredentials{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.log == nil {
		c.log = logger.L()
	}
	return c, nil
}

type request struct {
	method   string
	path     string
	query    url.Values
	body     any
	endpoint string
}

// wireEnvelope is the raw response shape. Success is a pointer so a missing
// field can be told apart from false.
type wireEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

// call runs one request and folds every outcome into an envelope.
func call[T any](ctx context.Context, c *Client, r request) (res envelope.Envelope[T]) {
	timer := metrics.StartTimer()
	log := c.logger(ctx).With(
		zap.String("endpoint", r.endpoint),
		zap.String("method", r.method),
	)

	defer func() {
		outcome := metrics.OutcomeSuccess
		if !res.Success {
			outcome = metrics.OutcomeFailure
		}
		c.metrics.ObserveRequest(r.endpoint, outcome, string(res.Code), timer.Duration())
	}()

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			log.Error("failed to marshal request body", zap.Error(err))
			return envelope.Fail[T](envelope.CodeValidation, "invalid request body")
		}
		body = bytes.NewReader(raw)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			log.Warn("rate limiter wait aborted", zap.Error(err))
			return envelope.Fail[T](envelope.CodeNetwork, err.Error())
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.buildURL(r.path, r.query), body)
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return envelope.Fail[T](envelope.CodeNetwork, err.Error())
	}

	token, userID := c.creds.Credentials(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-user-id", userID)

	log.Debug("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return envelope.Fail[T](envelope.CodeNetwork, transportMessage(err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("failed to read response body", zap.Error(err))
		return envelope.Fail[T](envelope.CodeNetwork, transportMessage(err))
	}

	res = decode[T](resp.StatusCode, payload)
	if !res.Success {
		log.Warn("request unsuccessful",
			zap.Int("status", resp.StatusCode),
			zap.String("code", string(res.Code)),
			zap.String("message", res.Message),
			zap.ByteString("response", truncate(payload, responseLogLimit)),
		)
	}
	return res
}

// decode validates the envelope shape before trusting any of it.
func decode[T any](status int, payload []byte) envelope.Envelope[T] {
	ok2xx := status >= 200 && status < 300

	var w wireEnvelope
	if err := json.Unmarshal(payload, &w); err != nil || w.Success == nil {
		if !ok2xx {
			return envelope.Failf[T](envelope.CodeHTTP, "%d %s", status, http.StatusText(status))
		}
		return envelope.Fail[T](envelope.CodeMalformedResponse, "response is not a valid envelope")
	}

	if !*w.Success {
		code := envelope.Code(strings.TrimSpace(w.Code))
		if code == envelope.CodeNone {
			code = classify(status, w.Message)
		}
		msg := w.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return envelope.Fail[T](code, msg)
	}

	var data T
	if len(w.Data) > 0 && !isJSONNull(bytes.TrimSpace(w.Data)) {
		if err := json.Unmarshal(w.Data, &data); err != nil {
			return envelope.Failf[T](envelope.CodeMalformedResponse, "unexpected response data: %v", err)
		}
	}
	return envelope.OK(data, w.Message)
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) logger(ctx context.Context) *zap.Logger {
	l := c.log
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	return l.With(zap.String("client", "fooddelivery"))
}

// transportMessage keeps the cause of a transport error without the
// "Get \"url\":" prefix net/http adds.
func transportMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}

func requireID[T any](name, id string) (envelope.Envelope[T], bool) {
	if strings.TrimSpace(id) == "" {
		return envelope.Failf[T](envelope.CodeValidation, "%s is required", name), false
	}
	return envelope.Envelope[T]{}, true
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
