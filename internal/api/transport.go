package api

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

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Doer performs endpoint calls. *Transport is the production implementation.
type Doer interface {
	Do(ctx context.Context, baseURL string, ep Endpoint, dest any) error
}

// Ensure Transport implements Doer at compile time.
var _ Doer = (*Transport)(nil)

const (
	defaultUserAgent    = "sprinkler/0.1"
	requestTimeout      = 8 * time.Second
	defaultMaxRetries   = 2
	defaultInitialDelay = 500 * time.Millisecond
	defaultRateLimit    = 10
	maxResponseBytes    = 4 << 20
)

// Transport turns Endpoint descriptors into HTTP calls with retry, response
// caching, JSON coding and error classification. It is safe for concurrent use.
type Transport struct {
	http         *http.Client
	userAgent    string
	maxRetries   int
	initialDelay time.Duration
	limiter      *rate.Limiter
	cache        *responseCache
	log          *zap.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		if client != nil {
			t.http = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.http.Timeout = d
		}
	}
}

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(t *Transport) {
		if n >= 0 {
			t.maxRetries = n
		}
	}
}

// WithRetryDelay sets the wait before the first retry; it doubles after each.
func WithRetryDelay(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.initialDelay = d
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(t *Transport) {
		if perSecond <= 0 {
			t.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithCacheEntries bounds the response cache.
func WithCacheEntries(n int) Option {
	return func(t *Transport) {
		t.cache = newResponseCache(n)
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(t *Transport) {
		if log != nil {
			t.log = log
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(t *Transport) {
		if strings.TrimSpace(ua) != "" {
			t.userAgent = ua
		}
	}
}

// New builds a Transport with the defaults: 8s timeout, two retries starting
// at 0.5s, 128 cached responses.
func New(opts ...Option) *Transport {
	t := &Transport{
		http:         &http.Client{Timeout: requestTimeout},
		userAgent:    defaultUserAgent,
		maxRetries:   defaultMaxRetries,
		initialDelay: defaultInitialDelay,
		limiter:      rate.NewLimiter(rate.Limit(defaultRateLimit), defaultRateLimit),
		cache:        newResponseCache(defaultCacheEntries),
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fetch performs ep and returns the decoded response.
func Fetch[T any](ctx context.Context, d Doer, baseURL string, ep Endpoint) (T, error) {
	var out T
	err := d.Do(ctx, baseURL, ep, &out)
	return out, err
}

// Do sends ep to baseURL and decodes the response into dest. dest may be nil
// or a *NoContent when no body is expected. Errors are always *Error.
func (t *Transport) Do(ctx context.Context, baseURL string, ep Endpoint, dest any) error {
	target, err := ResolveURL(baseURL, ep.Path)
	if err != nil {
		return err
	}
	method := ep.method()

	var payload []byte
	if ep.Body != nil {
		payload, err = json.Marshal(ep.Body)
		if err != nil {
			return &Error{Kind: KindInvalidResponse, Err: fmt.Errorf("encode body: %w", err)}
		}
	}
	header := t.buildHeader(ep, payload != nil)

	key := cacheKey(method, target, header)
	var cached *cachedResponse
	if method == http.MethodGet && ep.CachePolicy() == CacheProtocol {
		cached, _ = t.cache.get(key)
	}
	if cached != nil {
		if cached.etag != "" {
			header.Set("If-None-Match", cached.etag)
		}
		if cached.lastModified != "" {
			header.Set("If-Modified-Since", cached.lastModified)
		}
	}

	log := t.log.With(
		zap.String("method", method),
		zap.String("url", target),
		zap.String("request_id", header.Get("X-Request-ID")),
	)

	resp, err := t.send(ctx, log, method, target, header, payload, ep.FallbackToEmptyBody)
	if err != nil {
		if cached != nil && decode(cached.body, dest) == nil {
			log.Warn("serving cached response", zap.Error(err), zap.Time("stored_at", cached.storedAt))
			return nil
		}
		return err
	}

	body := resp.body
	if resp.status == http.StatusNotModified {
		if cached == nil {
			return &Error{Kind: KindInvalidResponse, Err: errors.New("304 without a cached response")}
		}
		log.Debug("not modified, using cached response")
		return decode(cached.body, dest)
	}
	if err := decode(body, dest); err != nil {
		log.Warn("decode failed", zap.Error(err))
		return err
	}
	if method == http.MethodGet {
		t.cache.put(key, &cachedResponse{
			body:         body,
			etag:         resp.header.Get("ETag"),
			lastModified: resp.header.Get("Last-Modified"),
			storedAt:     time.Now(),
		})
	}
	return nil
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

func (r *rawResponse) ok() bool {
	return (r.status >= 200 && r.status < 300) || r.status == http.StatusNotModified
}

// send runs the sequential attempt loop. Only one request is in flight at a
// time; non-retryable classifications end the loop immediately.
func (t *Transport) send(ctx context.Context, log *zap.Logger, method, target string, header http.Header, payload []byte, fallback bool) (*rawResponse, error) {
	attempt := 0
	op := func() (*rawResponse, error) {
		attempt++
		resp, err := t.exchange(ctx, method, target, header, payload)
		if err == nil && fallback && attempt == 1 && payload != nil && rejectsBody(resp.status) {
			log.Info("controller rejected body, resending without it", zap.Int("status", resp.status))
			payload = nil
			header = header.Clone()
			header.Del("Content-Type")
			resp, err = t.exchange(ctx, method, target, header, nil)
		}
		if err != nil {
			return nil, permanentUnlessRetryable(classifyTransport(err))
		}
		if !resp.ok() {
			return nil, permanentUnlessRetryable(statusError(resp.status, resp.body))
		}
		log.Debug("request complete", zap.Int("status", resp.status), zap.Int("attempt", attempt))
		return resp, nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("request failed, retrying", zap.Error(err), zap.Int("attempt", attempt), zap.Duration("wait", wait))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(t.newBackOff(), uint64(t.maxRetries)), ctx)
	resp, err := backoff.RetryNotifyWithData[*rawResponse](op, policy, notify)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, classifyTransport(err)
	}
	return resp, nil
}

func (t *Transport) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.initialDelay
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	return b
}

func permanentUnlessRetryable(err *Error) error {
	if err.Retryable() {
		return err
	}
	return backoff.Permanent(err)
}

func rejectsBody(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusUnsupportedMediaType
}

func (t *Transport) exchange(ctx context.Context, method, target string, header http.Header, payload []byte) (*rawResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = header.Clone()

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

func (t *Transport) buildHeader(ep Endpoint, hasBody bool) http.Header {
	header := make(http.Header, len(ep.Headers)+4)
	for name, value := range ep.Headers {
		header.Set(name, value)
	}
	if _, ok := ep.header("Content-Type"); hasBody && !ok {
		header.Set("Content-Type", "application/json")
	}
	if _, ok := ep.header("Accept"); !ok {
		header.Set("Accept", "application/json")
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", t.userAgent)
	}
	if header.Get("X-Request-ID") == "" {
		header.Set("X-Request-ID", uuid.NewString())
	}
	return header
}

func decode(body []byte, dest any) error {
	if dest == nil {
		return nil
	}
	if _, ok := dest.(*NoContent); ok {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return &Error{Kind: KindDecodingFailed, Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &Error{Kind: KindDecodingFailed, Err: err}
	}
	return nil
}

// ResolveURL joins baseURL and path with exactly one slash between their
// trimmed paths. A bare host:port is treated as http.
func ResolveURL(baseURL, path string) (string, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return "", &Error{Kind: KindInvalidURL, Err: errors.New("base url is empty")}
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", &Error{Kind: KindInvalidURL, Err: err}
	}
	if u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", &Error{Kind: KindInvalidURL, Err: fmt.Errorf("base url %q needs an http(s) host", baseURL)}
	}

	rel, query, _ := strings.Cut(path, "?")
	var segments []string
	for _, part := range []string{u.EscapedPath(), rel} {
		if p := strings.Trim(part, "/"); p != "" {
			segments = append(segments, p)
		}
	}
	escaped := "/" + strings.Join(segments, "/")
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return "", &Error{Kind: KindInvalidURL, Err: err}
	}
	u.Path = unescaped
	u.RawPath = escaped
	u.RawQuery = query
	u.Fragment = ""
	return u.String(), nil
}
