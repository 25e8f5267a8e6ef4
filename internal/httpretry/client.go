// Package httpretry executes outbound HTTP requests with a per-attempt
// timeout and a fixed-delay retry loop.
//
// Only transport failures (timeouts, refused or reset connections, DNS
// errors, truncated bodies) are retried. Any well-formed HTTP response,
// whatever its status, is handed back to the caller untouched.
package httpretry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
)

const (
	// DefaultTimeout bounds a single attempt, including reading the body.
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a response body is buffered.
	maxBodyBytes = 32 << 20
)

// cacheHeaders are attached to every request and override caller values.
var cacheHeaders = map[string]string{
	"Cache-Control": "no-cache, no-store, must-revalidate",
	"Pragma":        "no-cache",
	"Expires":       "0",
}

var keyParam = regexp.MustCompile(`key=([^&]+)`)

// MaskKey hides the value of a key= query parameter so URLs can be logged.
func MaskKey(rawURL string) string {
	return keyParam.ReplaceAllString(rawURL, "key=***")
}

// TransportError is returned when every attempt failed below the HTTP layer.
type TransportError struct {
	URL      string // masked
	Attempts int
	Err      error // last attempt's failure
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure after %d attempt(s) for %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the last attempt failed because its deadline expired.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// AttemptFunc is notified after every attempt; err is nil on success.
type AttemptFunc func(attempt int, err error)

// Defaults configures a Client. Retries and RetryDelay are used as given
// (negative values clamp to zero); a zero Timeout means DefaultTimeout.
type Defaults struct {
	Retries    int
	RetryDelay time.Duration
	Timeout    time.Duration

	// OnAttempt, when set, observes each attempt (used for metrics).
	OnAttempt AttemptFunc
}

// Client is safe for concurrent use.
type Client struct {
	http      *http.Client
	retries   int
	delay     time.Duration
	timeout   time.Duration
	onAttempt AttemptFunc
}

// New creates a Client. A nil httpClient uses a fresh http.Client without
// its own timeout; per-attempt deadlines come from the request context.
func New(httpClient *http.Client, d Defaults) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		http:      httpClient,
		retries:   d.Retries,
		delay:     d.RetryDelay,
		timeout:   d.Timeout,
		onAttempt: d.OnAttempt,
	}
	if c.retries < 0 {
		c.retries = 0
	}
	if c.delay < 0 {
		c.delay = 0
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

// request is the per-call configuration assembled from Options.
type request struct {
	method  string
	headers map[string]string
	body    any
	retries int
	delay   time.Duration
	timeout time.Duration
}

// Option customizes a single Do call.
type Option func(*request)

// WithMethod sets the HTTP method (default GET).
func WithMethod(method string) Option {
	return func(r *request) { r.method = method }
}

// WithHeader adds a request header. Cache headers cannot be overridden.
func WithHeader(key, value string) Option {
	return func(r *request) { r.headers[key] = value }
}

// WithBody sets a value to be sent JSON-encoded.
func WithBody(body any) Option {
	return func(r *request) { r.body = body }
}

// WithRetries sets the number of additional attempts after the first.
func WithRetries(n int) Option {
	return func(r *request) {
		if n >= 0 {
			r.retries = n
		}
	}
}

// WithRetryDelay sets the fixed pause between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(r *request) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(r *request) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Do performs the request, retrying transport failures up to the configured
// bound. On exhaustion it returns a *TransportError carrying the last failure.
// Cancelling ctx stops further attempts.
func (c *Client) Do(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	req := request{
		method:  http.MethodGet,
		headers: make(map[string]string),
		retries: c.retries,
		delay:   c.delay,
		timeout: c.timeout,
	}
	for _, opt := range opts {
		opt(&req)
	}

	var payload []byte
	if req.body != nil {
		var err error
		payload, err = json.Marshal(req.body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
	}

	safeURL := MaskKey(rawURL)
	logger := logging.WithFields(ctx, "url", safeURL, "method", req.method)
	total := req.retries + 1
	attempts := 0
	permanent := false

	resp, err := retry.DoWithData(
		func() (*Response, error) {
			attempts++
			logger.Debug("fetch attempt", "attempt", attempts, "of", total)

			resp, err := c.attempt(ctx, rawURL, req, payload)
			if c.onAttempt != nil {
				c.onAttempt(attempts, err)
			}
			permanent = err != nil && !retry.IsRecoverable(err)
			return resp, err
		},
		retry.Context(ctx),
		retry.Attempts(uint(total)),
		retry.Delay(req.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return ctx.Err() == nil && retry.IsRecoverable(err) }),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("fetch attempt failed",
				"attempt", n+1,
				"of", total,
				"timeout", errors.Is(err, context.DeadlineExceeded),
				"error", err.Error(),
			)
		}),
	)
	if err != nil && permanent {
		// url.Parse errors quote the raw URL.
		err = errors.New(MaskKey(err.Error()))
		logger.Error("fetch request could not be sent", "error", err.Error())
		return nil, err
	}
	if err != nil {
		logger.Error("all fetch attempts failed", "attempts", attempts, "error", err.Error())
		logger.Debug("fetch error detail", "error", err)
		return nil, &TransportError{URL: safeURL, Attempts: attempts, Err: err}
	}

	resp.Attempts = attempts
	return resp, nil
}

// attempt runs one bounded request and buffers the body inside the deadline.
func (c *Client) attempt(ctx context.Context, rawURL string, req request, payload []byte) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, req.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.method, rawURL, body)
	if err != nil {
		return nil, retry.Unrecoverable(errors.Wrap(err, "build request"))
	}

	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}
	if payload != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cacheHeaders {
		httpReq.Header.Set(k, v)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = MaskKey(uerr.URL)
		}
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       data,
	}, nil
}
