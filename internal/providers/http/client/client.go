package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config configures a Client for one upstream
type Config struct {
	Name      string
	Timeout   time.Duration
	Retries   int
	MinWait   time.Duration
	MaxWait   time.Duration
	RPS       float64 // 0 means unlimited
	UserAgent string
	// MaxBody caps how much of a response body is read
	MaxBody int64
	Breaker resilience.Settings
	Logger  *zap.Logger
}

// DefaultConfig returns settings suited to small public JSON APIs
func DefaultConfig(name string) Config {
	return Config{
		Name:      name,
		Timeout:   15 * time.Second,
		Retries:   2,
		MinWait:   500 * time.Millisecond,
		MaxWait:   5 * time.Second,
		RPS:       1,
		UserAgent: "homescreen/1.0",
		MaxBody:   4 << 20,
	}
}

// StatusError is a non-2xx response
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.Status)
}

// Response is a fully read response
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client is a resty client on a retrying transport, rate limited and guarded
// by a circuit breaker
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// New creates a client
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Retries
	retryClient.RetryWaitMin = cfg.MinWait
	retryClient.RetryWaitMax = cfg.MaxWait
	retryClient.Logger = nil

	// retries happen in the transport, so resty itself does not retry
	restyClient := resty.New().
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient}).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent)

	if cfg.Breaker.IsFailure == nil {
		cfg.Breaker.IsFailure = countsAgainstUpstream
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		burst := int(cfg.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	if cfg.MaxBody > 0 {
		restyClient.SetResponseBodyLimit(int(cfg.MaxBody))
	}

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		breaker: resilience.New(cfg.Name, cfg.Breaker),
		logger:  logger.With(zap.String("upstream", cfg.Name)),
	}
}

// countsAgainstUpstream ignores caller cancellation and client errors
func countsAgainstUpstream(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500 || se.Status == http.StatusTooManyRequests
	}
	return true
}

// Breaker exposes the circuit breaker
func (c *Client) Breaker() *resilience.Breaker {
	return c.breaker
}

// Get fetches url with query parameters. Non-2xx statuses return a
// *StatusError along with the response.
func (c *Client) Get(ctx context.Context, url string, query map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, query)
}

// GetJSON fetches url and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, url string, query map[string]string, out interface{}) error {
	resp, err := c.Get(ctx, url, query)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal(resp.Body, out); err != nil {
		return failure.New(failure.KindNetwork, "http.decode", fmt.Errorf("%s: %w", url, err))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, query map[string]string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	resp, err := resilience.Call(ctx, c.breaker, func(ctx context.Context) (*Response, error) {
		req := c.resty.R().SetContext(ctx)
		tracing.Inject(ctx, req.Header)
		if len(query) > 0 {
			req.SetQueryParams(query)
		}
		r, err := req.Execute(method, url)
		if err != nil {
			return nil, err
		}
		out := &Response{Status: r.StatusCode(), Header: r.Header(), Body: r.Body()}
		if r.StatusCode() < 200 || r.StatusCode() > 299 {
			return out, &StatusError{URL: url, Status: r.StatusCode()}
		}
		return out, nil
	})

	c.logger.Debug("Upstream request",
		zap.String("method", method),
		zap.String("url", url),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))

	if err != nil {
		// StatusError and ErrCircuitOpen stay reachable through errors.As/Is
		return nil, failure.New(failure.KindNetwork, "http."+c.breaker.Name(), err)
	}
	return resp, nil
}
