package gateway

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

	"agromart/middleware"
	"agromart/ratelim"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

var errServerStatus = errors.New("server error status")

// Options configures a Client.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	RatePerSecond   float64
	Burst           int
	BreakerFailures uint32
	BreakerCooldown time.Duration
	// Token returns the current bearer credential ("" when anonymous).
	Token func() string
	// OnUnauthorized runs when an authenticated call is rejected with 401.
	OnUnauthorized func()
	Logger         zerolog.Logger
	// Transport replaces the instrumented default transport.
	Transport http.RoundTripper
}

// Client issues typed calls against the marketplace REST API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelim.RateLimiter
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  zerolog.Logger
}

func New(opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = otelhttp.NewTransport(http.DefaultTransport)
	}
	token := opts.Token
	if token == nil {
		token = func() string { return "" }
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := opts.BreakerCooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}
	logger := opts.Logger

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "marketplace-api",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state changed")
		},
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/") + "/api",
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: middleware.Chain(base,
				middleware.RequestID(),
				middleware.Logging(logger),
				middleware.Authenticate(token, opts.OnUnauthorized),
			),
		},
		limiter: ratelim.NewRateLimiter(opts.RatePerSecond, opts.Burst),
		breaker: breaker,
		logger:  logger,
	}
}

// call describes one endpoint invocation. route is the path template used
// as the rate-limit key.
type call struct {
	method   string
	route    string
	path     string
	query    url.Values
	body     any
	out      any
	auth     bool
	authCall bool
	fallback string
}

func (c *Client) do(ctx context.Context, cl call) error {
	if err := c.limiter.Wait(ctx, cl.method+" "+cl.route); err != nil {
		return &NetworkError{Detail: "request cancelled", Err: err}
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", cl.route, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}
	if cl.auth {
		ctx = middleware.WithAuth(ctx)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", cl.route, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})
	if err != nil && !errors.Is(err, errServerStatus) {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &NetworkError{Detail: "service temporarily unavailable", Err: err}
		}
		return &NetworkError{Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &NetworkError{Detail: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(resp.StatusCode, raw, cl.fallback, cl.authCall)
	}
	if cl.out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		c.logger.Warn().Err(err).Str("route", cl.route).Msg("undecodable response")
		return &NetworkError{Detail: "unexpected response from server", Err: err}
	}
	return nil
}
