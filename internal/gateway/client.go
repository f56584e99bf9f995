// Package gateway wraps the AfrESH backend REST API. Every call performs a
// single request/response round trip and returns a typed result; nothing is
// retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/afresh/afresh-web/internal/model"
	"github.com/afresh/afresh-web/pkg/circuitbreaker"
	"github.com/afresh/afresh-web/pkg/metrics"
)

var (
	// ErrUnreachable wraps every transport level failure, including an open breaker.
	ErrUnreachable = errors.New("unable to reach the server")
	// ErrMalformedResponse is returned when a 2xx body cannot be understood.
	ErrMalformedResponse = errors.New("malformed response")
)

const maxBodyBytes = 4 << 20

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures int
	BreakerTimeout  time.Duration
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// New validates cfg and builds a client. m may be nil.
func New(cfg Config, m *metrics.Metrics) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "afresh-backend",
			MaxFailures: cfg.BreakerFailures,
			Timeout:     cfg.BreakerTimeout,
			IsFailure: func(err error) bool {
				return errors.Is(err, ErrUnreachable)
			},
		}),
		metrics: m,
	}, nil
}

// BaseURL returns the normalized backend base address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithToken returns a client that sends token as a bearer credential. The
// copy shares the transport and breaker with c.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type call struct {
	op     string
	method string
	path   string
	body   interface{}
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do performs the round trip for cl. The returned error is always wrapped
// with ErrUnreachable.
func (c *Client) do(ctx context.Context, cl call) (response, error) {
	var payload io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return response{}, fmt.Errorf("%s: encode request: %w", cl.op, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, payload)
	if err != nil {
		return response{}, fmt.Errorf("%s: build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	var res response
	err = c.breaker.Execute(func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrUnreachable, cl.method, cl.path, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", ErrUnreachable, cl.path, err)
		}
		res = response{status: resp.StatusCode, body: body}
		return nil
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		err = fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return res, err
}

// observe records the outcome of one call.
func (c *Client) observe(op string, start time.Time, outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.GatewayCalls.WithLabelValues(op, outcome).Inc()
	c.metrics.GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func outcomeOf(success bool, err error) string {
	switch {
	case err != nil:
		return "error"
	case success:
		return "success"
	default:
		return "failure"
	}
}

func logCall(op string, start time.Time, status int, err error) {
	if err != nil {
		log.Warn().Err(err).Str("operation", op).Dur("latency", time.Since(start)).Msg("backend call failed")
		return
	}
	log.Debug().Str("operation", op).Int("status", status).Dur("latency", time.Since(start)).Msg("backend call")
}

// envelope is the failure shape shared by every mutating endpoint.
type envelope struct {
	Success *bool              `json:"success"`
	Message string             `json:"message"`
	Errors  []model.FieldError `json:"errors"`
}

// failureFrom maps a non-2xx body to a message and field errors. The backend
// message is used only when the body says success:false.
func failureFrom(body []byte, fallback string) (string, []model.FieldError) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fallback, nil
	}
	if env.Success == nil || *env.Success {
		return fallback, nil
	}
	msg := env.Message
	if msg == "" {
		msg = fallback
	}
	return msg, env.Errors
}

func decode(op string, body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}

// decodeList decodes a JSON array into out. Any other JSON value yields an
// empty list.
func decodeList(op string, body []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return fmt.Errorf("%s: %w: body is not json", op, ErrMalformedResponse)
		}
		return nil
	}
	return decode(op, trimmed, out)
}

// StatusError reports a non-2xx answer to a list endpoint.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}
