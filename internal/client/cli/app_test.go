package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/dreamwell/internal/client/api"
	"github.com/dmitrijs2005/dreamwell/internal/client/config"
	"github.com/dmitrijs2005/dreamwell/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminUser = `{"id":1,"name":"Ada","email":"ada@example.com","role":"SUPER_ADMIN"}`

// fakeAPI is a minimal DreamWell backend.
type fakeAPI struct {
	mu       sync.Mutex
	token    string
	requests []string
	bodies   map[string]string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if len(body) > 0 {
		f.bodies[r.URL.Path] = string(body)
	}

	if strings.HasPrefix(r.URL.Path, "/auth/") {
		switch r.URL.Path {
		case "/auth/login", "/auth/signup":
			_, _ = io.WriteString(w, `{"data":{"accessToken":"T1","refreshToken":"R1","user":`+adminUser+`}}`)
		case "/auth/refresh-token":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			_, _ = io.WriteString(w, `{"message":"ok"}`)
		}
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/user/profile":
		if r.Method == http.MethodPut {
			var changes map[string]any
			_ = json.Unmarshal(body, &changes)
			u := map[string]any{"id": 1, "name": "Ada", "email": "ada@example.com", "role": "SUPER_ADMIN"}
			for k, v := range changes {
				u[k] = v
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"data": u})
			return
		}
		_, _ = io.WriteString(w, `{"data":`+adminUser+`}`)
	case "/analytics/export":
		_, _ = io.WriteString(w, `{"dreams":[{"id":1}]}`)
	default:
		_, _ = io.WriteString(w, `{"data":[{"id":1}]}`)
	}
}

type harness struct {
	app *App
	api *fakeAPI
	out *bytes.Buffer
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()

	fa := &fakeAPI{token: "T1", bodies: map[string]string{}}
	srv := httptest.NewServer(fa)
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = srv.URL
	cfg.StoreKind = config.StoreMemory
	cfg.RefreshCheckInterval = 0

	app, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	app.out = out
	app.reader = bufio.NewReader(strings.NewReader(input))

	origPw := getPassword
	getPassword = func(io.Writer, string) ([]byte, error) { return []byte("pw"), nil }
	t.Cleanup(func() { getPassword = origPw })

	captureOutput(t)
	return &harness{app: app, api: fa, out: out}
}

func TestApp_LoginProfileLogout(t *testing.T) {
	h := newHarness(t, "ada@example.com\n")
	ctx := context.Background()
	require.NoError(t, h.app.session.Init(ctx))

	assert.False(t, h.app.isLoggedIn())
	require.NoError(t, h.app.Login(ctx))
	assert.True(t, h.app.isLoggedIn())
	assert.True(t, h.app.isAdmin())
	assert.Equal(t, "(ada@example.com admin)", h.app.getStatus())
	assert.JSONEq(t, `{"email":"ada@example.com","password":"pw"}`, h.api.bodies["/auth/login"])

	require.NoError(t, h.app.Set(ctx, "notifications", "true"))
	assert.JSONEq(t, `{"notificationsEnabled":true}`, h.api.bodies["/user/profile"])
	assert.True(t, h.app.session.User().NotificationsEnabled)

	require.Error(t, h.app.Set(ctx, "notifications", "maybe"))
	require.Error(t, h.app.Set(ctx, "role", "ADMIN"))

	require.NoError(t, h.app.Whoami(ctx))
	assert.Contains(t, h.out.String(), "Ada <ada@example.com> role=SUPER_ADMIN state=AUTHENTICATED")

	require.NoError(t, h.app.Logout(ctx))
	assert.False(t, h.app.isLoggedIn())
	assert.Equal(t, "", h.app.getStatus())
}

func TestApp_DataCommands(t *testing.T) {
	h := newHarness(t, "ada@example.com\nFlying\nover the sea\n\nHappy again\n")
	ctx := context.Background()
	require.NoError(t, h.app.Login(ctx))

	require.NoError(t, h.app.Dreams(ctx, ""))
	require.NoError(t, h.app.Dreams(ctx, "sea"))
	require.NoError(t, h.app.Dream(ctx, "1"))
	require.Error(t, h.app.Dream(ctx, "abc"))
	require.NoError(t, h.app.NewDream(ctx))
	require.NoError(t, h.app.Mood(ctx, "happy"))
	require.NoError(t, h.app.Moods(ctx))
	require.NoError(t, h.app.Tickets(ctx))
	require.NoError(t, h.app.Admin(ctx, "users", nil))
	require.NoError(t, h.app.Admin(ctx, "tickets", []string{"open"}))
	require.Error(t, h.app.Admin(ctx, "toggle", nil))
	require.Error(t, h.app.Admin(ctx, "nuke", nil))
	require.NoError(t, h.app.Get(ctx, "/analytics"))

	var dream map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.api.bodies["/dreams"]), &dream))
	assert.Equal(t, "Flying", dream["title"])
	assert.Equal(t, "over the sea", dream["dreamText"])

	var mood map[string]any
	require.NoError(t, json.Unmarshal([]byte(h.api.bodies["/moods"]), &mood))
	assert.Equal(t, "HAPPY", mood["mood"])
	assert.Equal(t, "Happy again", mood["notes"])

	assert.Contains(t, h.api.requests, "GET /dreams/search")
	assert.Contains(t, h.api.requests, "GET /admin/support/tickets/status/OPEN")
	assert.Contains(t, h.out.String(), `"id": 1`)
}

func TestApp_Export(t *testing.T) {
	h := newHarness(t, "ada@example.com\n")
	ctx := context.Background()
	require.NoError(t, h.app.Login(ctx))

	dest := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, h.app.Export(ctx, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dreams":[{"id":1}]}`, string(got))
	assert.Contains(t, h.out.String(), "Exported 21 bytes to "+dest)

	require.Error(t, h.app.Export(ctx, "ftp://nowhere/x"))
}

func TestApp_SessionExpiryIsAnnounced(t *testing.T) {
	h := newHarness(t, "ada@example.com\n")
	ctx := context.Background()
	require.NoError(t, h.app.Login(ctx))
	h.api.mu.Lock()
	h.api.token = "rotated"
	h.api.mu.Unlock()

	err := h.app.Profile(ctx)
	require.Error(t, err)
	assert.False(t, h.app.isLoggedIn())
	assert.Contains(t, h.out.String(), "Your session has expired. Please log in again.")
}

func TestApp_PasswordFlows(t *testing.T) {
	h := newHarness(t, "ada@example.com\nreset-token\n")
	ctx := context.Background()

	require.NoError(t, h.app.Forgot(ctx))
	require.NoError(t, h.app.Reset(ctx))
	require.NoError(t, h.app.Verify(ctx, "v1"))

	assert.JSONEq(t, `{"token":"reset-token","newPassword":"pw"}`, h.api.bodies["/auth/reset-password"])
	assert.Contains(t, h.api.requests, "GET /auth/verify-email")
}

func TestApp_RunGatesPromptOnInit(t *testing.T) {
	h := newHarness(t, "dreams\nwhoami\nexit\n")

	require.NoError(t, h.app.Run(context.Background()))
	assert.False(t, h.app.session.Loading())
	assert.Contains(t, h.out.String(), "Welcome to DreamWell CLI")
	assert.Contains(t, h.out.String(), "Not logged in")
	assert.NotContains(t, h.api.requests, "GET /dreams")
}

func TestApp_RunStopsBackgroundWorkBeforeClosing(t *testing.T) {
	h := newHarness(t, "exit\n")
	h.app.config.RefreshCheckInterval = time.Millisecond

	closed := 0
	h.app.closeFn = func() error {
		closed++
		return nil
	}

	require.NoError(t, h.app.Run(context.Background()))
	assert.Equal(t, 1, closed)
	require.ErrorIs(t, h.app.pipeline.Refresh(context.Background()), api.ErrClosed)
}

func TestApp_Signup(t *testing.T) {
	h := newHarness(t, "Ada\nada@example.com\n")
	require.NoError(t, h.app.Signup(context.Background()))
	assert.Contains(t, h.out.String(), "Welcome, Ada!")
	assert.JSONEq(t, `{"name":"Ada","email":"ada@example.com","password":"pw"}`, h.api.bodies["/auth/signup"])
}

func TestStartRefreshWatcher_StopsOnCancel(t *testing.T) {
	h := newHarness(t, "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.app.StartRefreshWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}

	// Disabled interval returns immediately.
	h.app.StartRefreshWatcher(context.Background(), 0)
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{StoreKind: config.StoreSQLite, StorePath: filepath.Join(t.TempDir(), "a", "s.db")}
	b, closeFn, err := openBackend(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, b.PutMany(ctx, map[string][]byte{"k": []byte("v")}))
	require.NoError(t, closeFn())

	_, _, err = openBackend(ctx, &config.Config{StoreKind: config.StoreRedis, RedisAddr: "127.0.0.1:1"})
	require.Error(t, err)

	_, _, err = openBackend(ctx, &config.Config{StoreKind: "etcd"})
	require.Error(t, err)
}

func TestNewApp_SealedStore(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = "http://127.0.0.1:1"
	cfg.StorePath = filepath.Join(t.TempDir(), "s.db")
	cfg.Passphrase = "correct horse"

	app, err := NewApp(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, app.Close())

	cfg.APIBaseURL = "not a url"
	_, err = NewApp(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
}
