package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/dreamwell/internal/client/api"
	"github.com/dmitrijs2005/dreamwell/internal/client/config"
	"github.com/dmitrijs2005/dreamwell/internal/client/credentials"
	"github.com/dmitrijs2005/dreamwell/internal/client/session"
	"github.com/dmitrijs2005/dreamwell/internal/logging"
)

type App struct {
	config    *config.Config
	log       logging.Logger
	session   *session.Session
	pipeline  *api.Pipeline
	resources *api.Resources
	auth      *api.AuthAPI
	closeFn   func() error

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the configured credential backend and builds the session on
// top of it.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	backend, closeFn, err := openBackend(ctx, c)
	if err != nil {
		return nil, err
	}

	var storeOpts []credentials.Option
	storeOpts = append(storeOpts, credentials.WithLogger(log))
	if c.Passphrase != "" {
		sealer, err := credentials.SealerFor(ctx, backend, []byte(c.Passphrase))
		if err != nil {
			_ = closeFn()
			return nil, err
		}
		storeOpts = append(storeOpts, credentials.WithSealer(sealer))
	}
	store := credentials.New(backend, storeOpts...)

	pipeline, err := api.New(c.APIBaseURL, store,
		api.WithHTTPClient(api.NewHTTPClient(c.RequestTimeout)),
		api.WithLogger(log),
	)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	a := newApp(c, log, store, pipeline)
	a.closeFn = closeFn
	return a, nil
}

func newApp(c *config.Config, log logging.Logger, store api.CredentialStore, pipeline *api.Pipeline) *App {
	a := &App{
		config:    c,
		log:       log,
		session:   session.New(store, pipeline, session.WithLogger(log)),
		pipeline:  pipeline,
		resources: api.NewResources(pipeline),
		auth:      api.NewAuthAPI(pipeline),
		closeFn:   func() error { return nil },
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
	}
	a.session.Watch(a.onSessionEvent)
	return a
}

func (a *App) onSessionEvent(ev session.Event) {
	if ev.Reason == session.ReasonSessionExpired {
		fmt.Fprintln(a.out, "Your session has expired. Please log in again.")
	}
}

// Run hydrates the session, starts the refresh watcher and blocks in the
// REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.session.Init(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.StartRefreshWatcher(ctx, a.config.RefreshCheckInterval)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	fmt.Fprintln(a.out, "Welcome to DreamWell CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
	return nil
}

// Close waits for refreshes still in flight and then releases the store.
func (a *App) Close() error {
	a.pipeline.Close()
	return a.closeFn()
}

func (a *App) isLoggedIn() bool {
	return !a.session.Loading() && a.session.IsAuthenticated()
}

func (a *App) isAdmin() bool {
	return a.isLoggedIn() && a.session.IsAdmin()
}

func (a *App) getStatus() string {
	u := a.session.User()
	if u == nil {
		return ""
	}
	if u.IsAdmin() {
		return fmt.Sprintf("(%s admin)", u.Email)
	}
	return fmt.Sprintf("(%s)", u.Email)
}

// StartRefreshWatcher refreshes the access token ahead of expiry every
// interval until ctx is done. A non-positive interval disables it.
func (a *App) StartRefreshWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !a.session.IsAuthenticated() {
				continue
			}
			rctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
			refreshed, err := a.session.RefreshIfExpiring(rctx, a.config.RefreshLeeway)
			cancel()

			switch {
			case err != nil && !errors.Is(err, context.Canceled):
				a.log.Warn(ctx, "proactive refresh failed", "error", err)
			case refreshed:
				a.log.Debug(ctx, "access token refreshed ahead of expiry")
			}

		case <-ctx.Done():
			return
		}
	}
}
