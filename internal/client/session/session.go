package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/dreamwell/internal/client/api"
	"github.com/dmitrijs2005/dreamwell/internal/client/models"
	"github.com/dmitrijs2005/dreamwell/internal/logging"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotAuthenticated = errors.New("not authenticated")
)

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type signupInput struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type Session struct {
	store     api.CredentialStore
	pipeline  *api.Pipeline
	auth      *api.AuthAPI
	resources *api.Resources
	validate  *validator.Validate
	log       logging.Logger
	now       func() time.Time

	initOnce sync.Once
	initErr  error

	mu      sync.RWMutex
	state   State
	loading bool
	creds   models.Credentials

	watchMu  sync.Mutex
	watchers map[int]func(Event)
	nextID   int
}

type Option func(*Session)

func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithClock replaces time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New builds a session over store and the pipeline that shares it. The
// session subscribes to the pipeline's refresh and expiry notifications.
func New(store api.CredentialStore, pipeline *api.Pipeline, opts ...Option) *Session {
	s := &Session{
		store:     store,
		pipeline:  pipeline,
		auth:      api.NewAuthAPI(pipeline),
		resources: api.NewResources(pipeline),
		validate:  validator.New(),
		log:       logging.Discard(),
		now:       time.Now,
		state:     StateUninitialized,
		loading:   true,
		watchers:  make(map[int]func(Event)),
	}
	for _, o := range opts {
		o(s)
	}

	pipeline.OnSessionExpired(s.onExpired)
	pipeline.OnTokensRefreshed(s.onRefreshed)
	return s
}

// Init hydrates the session from the credential store. Only the first call
// does any work; every call returns that first result. Loading reports false
// once it returns.
func (s *Session) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		creds, err := s.store.Load(ctx)

		s.mu.Lock()
		// A login that finished before Init wins over whatever was stored.
		if s.state == StateUninitialized {
			if err == nil && creds.Usable() {
				s.creds = creds
				s.state = StateAuthenticated
			} else {
				s.creds = models.Credentials{}
				s.state = StateAnonymous
			}
		}
		s.loading = false
		ev := s.eventLocked(ReasonInit)
		s.mu.Unlock()

		if err != nil {
			s.initErr = fmt.Errorf("load credentials: %w", err)
		}
		s.log.Info(ctx, "session initialized", "state", ev.State.String())
		s.notify(ev)
	})
	return s.initErr
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := s.validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	res, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.adopt(ctx, ReasonLogin, res.Credentials())
}

func (s *Session) Signup(ctx context.Context, name, email, password string) error {
	if err := s.validate.Struct(signupInput{Name: name, Email: email, Password: password}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	res, err := s.auth.Signup(ctx, name, email, password)
	if err != nil {
		return err
	}
	return s.adopt(ctx, ReasonSignup, res.Credentials())
}

// adopt persists creds and only then makes them the in-memory session.
func (s *Session) adopt(ctx context.Context, reason Reason, creds models.Credentials) error {
	if err := s.store.Save(ctx, creds); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.creds = creds
	s.state = StateAuthenticated
	s.loading = false
	ev := s.eventLocked(reason)
	s.mu.Unlock()

	s.log.Info(ctx, "session started", "reason", string(reason), "user_id", creds.User.ID)
	s.notify(ev)
	return nil
}

// Logout forgets the session locally. The in-memory state is reset even if
// the store could not be cleared; that failure is returned.
func (s *Session) Logout(ctx context.Context) error {
	err := s.store.Clear(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to clear credentials on logout", "error", err)
		err = fmt.Errorf("logout: %w", err)
	}
	s.reset(ctx, ReasonLogout)
	return err
}

// UpdateUser replaces the cached user and persists it next to whatever
// tokens are stored at that moment.
func (s *Session) UpdateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("%w: user is nil", ErrInvalidInput)
	}
	if s.State() != StateAuthenticated {
		return ErrNotAuthenticated
	}

	user := copyUser(u)
	_, saved, err := s.store.Update(ctx, func(cur models.Credentials) (models.Credentials, bool) {
		if cur.AccessToken == "" {
			return cur, false
		}
		cur.User = user
		return cur, true
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if !saved {
		return ErrNotAuthenticated
	}

	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	s.creds.User = copyUser(user)
	ev := s.eventLocked(ReasonUserUpdated)
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

// LoadProfile fetches the user record from the backend and adopts it.
func (s *Session) LoadProfile(ctx context.Context) (*models.User, error) {
	raw, err := s.resources.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	return s.adoptProfile(ctx, raw)
}

// SaveProfile sends changes to the backend and adopts the returned record.
func (s *Session) SaveProfile(ctx context.Context, changes map[string]any) (*models.User, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: no changes", ErrInvalidInput)
	}
	raw, err := s.resources.UpdateProfile(ctx, changes)
	if err != nil {
		return nil, err
	}
	return s.adoptProfile(ctx, raw)
}

func (s *Session) adoptProfile(ctx context.Context, raw json.RawMessage) (*models.User, error) {
	u, err := models.DecodeUser(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: profile: %w", api.ErrMalformedResponse, err)
	}
	if err := s.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return copyUser(u), nil
}

// RefreshIfExpiring refreshes the access token ahead of time when it is a
// JWT expiring within leeway. Opaque tokens are left for the 401 path. It
// reports whether a refresh was attempted.
func (s *Session) RefreshIfExpiring(ctx context.Context, leeway time.Duration) (bool, error) {
	s.mu.RLock()
	token := s.creds.AccessToken
	s.mu.RUnlock()
	if token == "" {
		return false, nil
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false, nil
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Sub(s.now()) > leeway {
		return false, nil
	}

	s.log.Debug(ctx, "access token close to expiry, refreshing", "expires_at", claims.ExpiresAt.Time)
	return true, s.pipeline.Refresh(ctx)
}

func (s *Session) onExpired(ctx context.Context, cause error) {
	s.log.Warn(ctx, "session expired", "error", cause)
	s.reset(ctx, ReasonSessionExpired)
}

func (s *Session) onRefreshed(ctx context.Context, creds models.Credentials) {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		s.mu.Unlock()
		return
	}
	s.creds.AccessToken = creds.AccessToken
	s.creds.RefreshToken = creds.RefreshToken
	ev := s.eventLocked(ReasonTokensRefreshed)
	s.mu.Unlock()

	s.notify(ev)
}

func (s *Session) reset(ctx context.Context, reason Reason) {
	s.mu.Lock()
	s.creds = models.Credentials{}
	s.state = StateAnonymous
	s.loading = false
	ev := s.eventLocked(reason)
	s.mu.Unlock()

	s.log.Info(ctx, "session ended", "reason", string(reason))
	s.notify(ev)
}

func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.creds.User)
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.User != nil
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.User.IsAdmin()
}

// Loading is true until Init has finished.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		State:        s.state,
		Loading:      s.loading,
		User:         copyUser(s.creds.User),
		AccessToken:  s.creds.AccessToken,
		RefreshToken: s.creds.RefreshToken,
	}
}

// Watch registers fn for every later transition and returns a function
// that unregisters it. fn runs on the goroutine that caused the change.
func (s *Session) Watch(fn func(Event)) (cancel func()) {
	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.watchMu.Unlock()

	return func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}
}

func (s *Session) eventLocked(reason Reason) Event {
	return Event{Reason: reason, State: s.state, User: copyUser(s.creds.User)}
}

func (s *Session) notify(ev Event) {
	s.watchMu.Lock()
	fns := make([]func(Event), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
