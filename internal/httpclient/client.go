package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phuslu/log"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = 5 * time.Second
)

// Options configures a Client. Zero values fall back to the defaults above,
// except Retries, where a negative value means "use the default".
type Options struct {
	UserAgent  string
	Jar        http.CookieJar
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
	Transport  http.RoundTripper
	Logger     *log.Logger
}

// Client is a cookie-bearing session that retries transient failures.
type Client struct {
	http       *http.Client
	userAgent  string
	retries    int
	retryDelay time.Duration
	logger     *log.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client. One Client is one session: every request shares its
// cookie jar.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := opts.Retries
	if retries < 0 {
		retries = DefaultRetries
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}

	return &Client{
		http: &http.Client{
			Jar:       opts.Jar,
			Timeout:   timeout,
			Transport: opts.Transport,
		},
		userAgent:  opts.UserAgent,
		retries:    retries,
		retryDelay: delay,
		logger:     logger,
		sleep:      wait,
	}
}

// Jar returns the session's cookie jar (nil when the session has none).
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// ByteRange is an inclusive range for a partial download.
type ByteRange struct {
	Start, End int64
}

type request struct {
	params       url.Values
	header       http.Header
	form         url.Values
	byteRange    *ByteRange
	stream       bool
	retries      int
	initialDelay time.Duration
}

// RequestOption tweaks a single request.
type RequestOption func(*request)

func WithParams(params url.Values) RequestOption {
	return func(r *request) { r.params = params }
}

func WithHeader(key, value string) RequestOption {
	return func(r *request) { r.header.Set(key, value) }
}

// WithByteRange asks for bytes start..end inclusive.
func WithByteRange(start, end int64) RequestOption {
	return func(r *request) { r.byteRange = &ByteRange{Start: start, End: end} }
}

// WithStream leaves the response body unread. The caller must close it.
func WithStream() RequestOption {
	return func(r *request) { r.stream = true }
}

// WithRetries overrides the session's retry count for one request.
func WithRetries(n int) RequestOption {
	return func(r *request) { r.retries = n }
}

// WithInitialDelay waits d before the first attempt.
func WithInitialDelay(d time.Duration) RequestOption {
	return func(r *request) { r.initialDelay = d }
}

func withForm(form url.Values) RequestOption {
	return func(r *request) { r.form = form }
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, opts...)
}

// PostForm issues a POST with an application/x-www-form-urlencoded body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, opts ...RequestOption) (*http.Response, error) {
	return c.Do(ctx, http.MethodPost, rawURL, append(opts, withForm(form))...)
}

// Do performs the request, retrying transient failures with a fixed delay.
//
// A 403, 404 or 503 fails on the first attempt. Any other failure is retried
// until the retry budget is spent, after which the returned error matches
// ErrRetriesExhausted. Unless WithStream is given, the body has been read into
// memory and the returned response's Body never fails.
func (c *Client) Do(ctx context.Context, method, rawURL string, opts ...RequestOption) (*http.Response, error) {
	r := &request{header: make(http.Header), retries: c.retries}
	for _, opt := range opts {
		opt(r)
	}

	if r.initialDelay > 0 {
		if err := c.sleep(ctx, r.initialDelay); err != nil {
			return nil, err
		}
	}

	attempts := r.retries + 1
	var lastErr error
	for left := r.retries; ; left-- {
		resp, err := c.attempt(ctx, method, rawURL, r)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if IsPermanent(err) {
			c.logger.Warn().Err(err).Str("url", rawURL).Msg("request failed, will not retry")
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if left <= 0 {
			break
		}

		c.logger.Warn().
			Err(err).
			Str("url", rawURL).
			Int("retries_left", left).
			Dur("delay", c.retryDelay).
			Msgf("request failed (%d retries left), will retry in %s", left, c.retryDelay)
		if err := c.sleep(ctx, c.retryDelay); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%s %s: %w after %d attempts: %w", method, rawURL, ErrRetriesExhausted, attempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, rawURL string, r *request) (*http.Response, error) {
	u := rawURL
	if len(r.params) > 0 {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse url: %w", err)
		}
		q := parsed.Query()
		for k, vs := range r.params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		parsed.RawQuery = q.Encode()
		u = parsed.String()
	}

	var body io.Reader
	if r.form != nil {
		body = strings.NewReader(r.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range r.header {
		req.Header[k] = vs
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if r.byteRange != nil {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", r.byteRange.Start, r.byteRange.End))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &StatusError{Method: method, URL: rawURL, StatusCode: resp.StatusCode}
	}

	if r.stream {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

// wait blocks for d and returns early with the context's error if it is
// cancelled first.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadText returns the body of a response returned by Do without WithStream.
func ReadText(resp *http.Response) string {
	data, _ := io.ReadAll(resp.Body)
	return string(data)
}

// FinalURL is the URL the response was served from after redirects.
func FinalURL(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return resp.Request.URL.String()
}
