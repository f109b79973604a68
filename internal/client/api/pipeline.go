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
	"sync"
	"time"

	"github.com/dmitrijs2005/dreamwell/internal/client/models"
	"github.com/dmitrijs2005/dreamwell/internal/common"
	"github.com/dmitrijs2005/dreamwell/internal/logging"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

const refreshPath = "/auth/refresh-token"

// CredentialStore is the persistence the pipeline reads tokens from and
// writes refreshed tokens to.
type CredentialStore interface {
	Load(ctx context.Context) (models.Credentials, error)
	Save(ctx context.Context, creds models.Credentials) error
	Clear(ctx context.Context) error
	// Update applies fn to the stored record atomically with respect to the
	// store's other writers; an empty result clears the record.
	Update(ctx context.Context, fn func(models.Credentials) (models.Credentials, bool)) (models.Credentials, bool, error)
}

// Request describes one API call. Body, when set, is JSON-encoded once and
// the same bytes are resent on retry.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Anonymous requests never carry a token and never trigger a refresh.
	Anonymous bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Payload returns the body with any {"data": ...} wrapper removed.
func (r *Response) Payload() json.RawMessage {
	return ParseEnvelope(r.Body).Payload
}

// Decode unmarshals the normalized payload into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Payload(), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

type (
	ExpiredHandler   func(ctx context.Context, cause error)
	RefreshedHandler func(ctx context.Context, creds models.Credentials)
)

type Pipeline struct {
	baseURL        *url.URL
	http           *http.Client
	store          CredentialStore
	log            logging.Logger
	refreshTimeout time.Duration

	flights singleflight.Group

	// inflight counts refresh flights still running; closed stops new ones.
	flightMu sync.Mutex
	closed   bool
	inflight sync.WaitGroup

	mu        sync.RWMutex
	onExpired []ExpiredHandler
	onRefresh []RefreshedHandler
}

type Option func(*Pipeline)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.http = c }
}

func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithRefreshTimeout bounds a refresh call independently of the context of
// whichever request happened to start it.
func WithRefreshTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.refreshTimeout = d }
}

// NewHTTPClient returns the default client: otelhttp-instrumented transport
// and an overall timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func New(baseURL string, store CredentialStore, opts ...Option) (*Pipeline, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	p := &Pipeline{
		baseURL:        u,
		store:          store,
		log:            logging.Discard(),
		refreshTimeout: 15 * time.Second,
	}
	for _, o := range opts {
		o(p)
	}
	if p.http == nil {
		p.http = NewHTTPClient(30 * time.Second)
	}
	return p, nil
}

// OnSessionExpired registers h to run after a failed refresh has wiped the
// stored credentials.
func (p *Pipeline) OnSessionExpired(h ExpiredHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onExpired = append(p.onExpired, h)
}

// OnTokensRefreshed registers h to run after new tokens were persisted.
func (p *Pipeline) OnTokensRefreshed(h RefreshedHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRefresh = append(p.onRefresh, h)
}

// Do sends req, recovering from one access-token expiry along the way.
func (p *Pipeline) Do(ctx context.Context, req Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	at := attempt{state: stateSent}
	if !req.Anonymous {
		at.token = p.currentToken(ctx)
	}

	for {
		resp, err := p.send(ctx, req, body, at.token)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusUnauthorized || req.Anonymous || !at.canRefresh() {
			return finish(resp)
		}

		at.state = stateRefreshing
		token, err := p.refreshFrom(ctx, at.token)
		if errors.Is(err, errNoSession) {
			return finish(resp)
		}
		if err != nil {
			return nil, err
		}

		at.state = stateRetried
		at.token = token
		p.log.Debug(ctx, "retrying request with refreshed token", "method", req.Method, "path", req.Path)
	}
}

// Refresh obtains a new access token now, sharing any refresh already in
// flight. A failure expires the session exactly like a failed silent
// refresh.
func (p *Pipeline) Refresh(ctx context.Context) error {
	_, err := p.refreshFrom(ctx, p.currentToken(ctx))
	if errors.Is(err, errNoSession) {
		return ErrUnauthorized
	}
	return err
}

func (p *Pipeline) currentToken(ctx context.Context) string {
	creds, err := p.store.Load(ctx)
	if err != nil {
		return ""
	}
	return creds.AccessToken
}

// refreshFrom replaces staleToken. Callers holding the same stale token share
// one flight; a flight that finds the stored token already replaced returns
// it without touching the network.
func (p *Pipeline) refreshFrom(ctx context.Context, staleToken string) (string, error) {
	ch := p.flights.DoChan(staleToken, func() (any, error) {
		if !p.enterFlight() {
			return "", ErrClosed
		}
		defer p.inflight.Done()

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.refreshTimeout)
		defer cancel()
		return p.runRefresh(fctx, staleToken)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (p *Pipeline) enterFlight() bool {
	p.flightMu.Lock()
	defer p.flightMu.Unlock()
	if p.closed {
		return false
	}
	p.inflight.Add(1)
	return true
}

// Close refuses further refreshes and waits for those already running, so
// nothing writes to the credential store after it returns.
func (p *Pipeline) Close() {
	p.flightMu.Lock()
	p.closed = true
	p.flightMu.Unlock()
	p.inflight.Wait()
}

func (p *Pipeline) runRefresh(ctx context.Context, staleToken string) (string, error) {
	creds, err := p.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if creds.AccessToken != "" && creds.AccessToken != staleToken {
		return creds.AccessToken, nil
	}
	if creds.RefreshToken == "" {
		if creds.AccessToken == "" {
			return "", errNoSession
		}
		return p.expire(ctx, creds, errMissingRefreshToken)
	}

	tokens, err := p.callRefresh(ctx, creds.RefreshToken)
	if err != nil {
		return p.expire(ctx, creds, err)
	}

	// The record may have been cleared or replaced while the call was out;
	// the new tokens only belong to the session that asked for them.
	next, applied, err := p.store.Update(ctx, func(cur models.Credentials) (models.Credentials, bool) {
		if !sameSession(cur, creds) {
			return cur, false
		}
		cur.AccessToken = tokens.AccessToken
		if tokens.RefreshToken != "" {
			cur.RefreshToken = tokens.RefreshToken
		}
		return cur, true
	})
	if err != nil {
		return p.expire(ctx, creds, err)
	}
	if !applied {
		p.log.Info(ctx, "session changed during refresh, discarding new tokens")
		return superseded(next)
	}

	p.log.Info(ctx, "access token refreshed")
	p.mu.RLock()
	handlers := append([]RefreshedHandler(nil), p.onRefresh...)
	p.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, next)
	}
	return next.AccessToken, nil
}

func sameSession(a, b models.Credentials) bool {
	return a.AccessToken == b.AccessToken && a.RefreshToken == b.RefreshToken
}

// superseded is the outcome for a request whose session was replaced under
// it: retry with the current token, or give up when there is none.
func superseded(cur models.Credentials) (string, error) {
	if cur.AccessToken == "" {
		return "", errNoSession
	}
	return cur.AccessToken, nil
}

type refreshResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (p *Pipeline) callRefresh(ctx context.Context, refreshToken string) (refreshResult, error) {
	var out refreshResult

	body, err := encodeBody(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return out, err
	}
	resp, err := p.send(ctx, Request{Method: http.MethodPost, Path: refreshPath, Anonymous: true}, body, "")
	if err != nil {
		return out, err
	}
	if _, err := finish(resp); err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	if out.AccessToken == "" {
		return out, fmt.Errorf("%w: refresh returned no access token", ErrMalformedResponse)
	}
	return out, nil
}

// expire ends the session described by creds: the stored record is wiped
// and the expiry handlers run. A record that no longer matches creds
// belongs to a newer session and is left alone.
func (p *Pipeline) expire(ctx context.Context, creds models.Credentials, cause error) (string, error) {
	cur, cleared, err := p.store.Update(ctx, func(cur models.Credentials) (models.Credentials, bool) {
		if !sameSession(cur, creds) {
			return cur, false
		}
		return models.Credentials{}, true
	})
	if err == nil && !cleared {
		p.log.Info(ctx, "refresh failed for a session that is already gone", "error", cause)
		return superseded(cur)
	}

	p.log.Warn(ctx, "refresh failed, ending session", "error", cause)
	if err != nil {
		p.log.Error(ctx, "failed to clear credentials", "error", err)
	}

	p.mu.RLock()
	handlers := append([]ExpiredHandler(nil), p.onExpired...)
	p.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, cause)
	}
	return "", fmt.Errorf("%w: %w", ErrSessionExpired, cause)
}

func (p *Pipeline) resolve(req Request) string {
	u := *p.baseURL
	u.Path = p.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String()
}

func (p *Pipeline) send(ctx context.Context, req Request, body []byte, token string) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, p.resolve(req), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set(common.RequestIDHeader, requestID)
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		hreq.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	start := time.Now()
	hresp, err := p.http.Do(hreq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.log.Warn(ctx, "request failed", "method", method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	p.log.Debug(ctx, "request done",
		"method", method,
		"path", req.Path,
		"status", hresp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Response{StatusCode: hresp.StatusCode, Header: hresp.Header, Body: data}, nil
}

func finish(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, &StatusError{
		StatusCode: resp.StatusCode,
		Message:    ParseEnvelope(resp.Body).Message,
		Body:       resp.Body,
	}
}

func encodeBody(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return b, nil
}
