package webhook

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
	"time"

	"github.com/dmitrymomot/eventhttp/core/logger"
)

// Config configures a Sender from the environment.
type Config struct {
	Timeout          time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
	Secret           string        `env:"WEBHOOK_SECRET"`
	MaxResponseBytes int64         `env:"WEBHOOK_MAX_RESPONSE_BYTES" envDefault:"65536"`
	UserAgent        string        `env:"WEBHOOK_USER_AGENT" envDefault:"eventhttp/1"`
}

// Response is the outcome of a delivered request.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Sender posts JSON payloads to webhook endpoints.
type Sender struct {
	client *http.Client
	cfg    Config
	logger *slog.Logger
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) SenderOption {
	return func(s *Sender) {
		if c != nil {
			s.client = c
		}
	}
}

// WithConfig applies cfg. Zero fields keep their defaults.
func WithConfig(cfg Config) SenderOption {
	return func(s *Sender) {
		if cfg.Timeout > 0 {
			s.cfg.Timeout = cfg.Timeout
		}
		if cfg.MaxResponseBytes > 0 {
			s.cfg.MaxResponseBytes = cfg.MaxResponseBytes
		}
		if cfg.UserAgent != "" {
			s.cfg.UserAgent = cfg.UserAgent
		}
		s.cfg.Secret = cfg.Secret
	}
}

// WithLogger sets the sender logger.
func WithLogger(l *slog.Logger) SenderOption {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSender creates a Sender.
func NewSender(opts ...SenderOption) *Sender {
	s := &Sender{
		client: &http.Client{},
		cfg: Config{
			Timeout:          10 * time.Second,
			MaxResponseBytes: 64 << 10,
			UserAgent:        "eventhttp/1",
		},
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sendOptions struct {
	query   url.Values
	headers http.Header
	secret  string
	timeout time.Duration
}

// SendOption customizes a single Send call.
type SendOption func(*sendOptions)

// WithQuery adds a query parameter to the target URL.
func WithQuery(key, value string) SendOption {
	return func(o *sendOptions) {
		o.query.Add(key, value)
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) {
		o.headers.Set(key, value)
	}
}

// WithSignature signs the request body with secret.
func WithSignature(secret string) SendOption {
	return func(o *sendOptions) {
		o.secret = secret
	}
}

// WithTimeout overrides the sender timeout for one call.
func WithTimeout(d time.Duration) SendOption {
	return func(o *sendOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Send POSTs payload as JSON to target. []byte and json.RawMessage payloads
// are sent verbatim. Non-2xx responses return a *StatusError together with
// the response.
func (s *Sender) Send(ctx context.Context, target string, payload any, opts ...SendOption) (*Response, error) {
	o := sendOptions{
		query:   url.Values{},
		headers: http.Header{},
		secret:  s.cfg.Secret,
		timeout: s.cfg.Timeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := buildURL(target, o.query)
	if err != nil {
		return nil, err
	}

	body, err := encode(payload)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	for k, v := range o.headers {
		req.Header[k] = v
	}
	if o.secret != "" {
		sig, err := SignPayload(o.secret, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set(SignatureHeader, sig.Signature)
		req.Header.Set(TimestampHeader, strconv.FormatInt(sig.Timestamp, 10))
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w: %w", ErrTemporaryFailure, ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxResponseBytes))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read webhook response body", logger.URL(u), logger.Error(err))
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Duration:   time.Since(start),
	}

	s.logger.DebugContext(ctx, "webhook delivered",
		logger.URL(u),
		slog.Int("status", resp.StatusCode),
		logger.Duration(out.Duration))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &StatusError{StatusCode: resp.StatusCode, Body: respBody}
	}
	return out, nil
}

func buildURL(target string, query url.Values) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encode(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, ErrInvalidPayload
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return body, nil
}
