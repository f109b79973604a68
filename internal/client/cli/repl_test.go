package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/dreamwell/internal/client/api"
	"github.com/dmitrijs2005/dreamwell/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExec struct {
	loggedIn bool
	admin    bool
	failWith error

	calls []string
}

func (f *fakeExec) record(call string) error {
	f.calls = append(f.calls, call)
	return f.failWith
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) isAdmin() bool    { return f.admin }

func (f *fakeExec) Signup(context.Context) error { return f.record("signup") }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Forgot(context.Context) error              { return f.record("forgot") }
func (f *fakeExec) Reset(context.Context) error               { return f.record("reset") }
func (f *fakeExec) Verify(_ context.Context, tok string) error { return f.record("verify " + tok) }
func (f *fakeExec) Whoami(context.Context) error              { return f.record("whoami") }
func (f *fakeExec) Profile(context.Context) error             { return f.record("profile") }
func (f *fakeExec) Set(_ context.Context, field, value string) error {
	return f.record("set " + field + "=" + value)
}
func (f *fakeExec) Dreams(_ context.Context, kw string) error { return f.record("dreams " + kw) }
func (f *fakeExec) Dream(_ context.Context, id string) error  { return f.record("dream " + id) }
func (f *fakeExec) NewDream(context.Context) error            { return f.record("newdream") }
func (f *fakeExec) Moods(context.Context) error               { return f.record("moods") }
func (f *fakeExec) Mood(_ context.Context, m string) error    { return f.record("mood " + m) }
func (f *fakeExec) Tickets(context.Context) error             { return f.record("tickets") }
func (f *fakeExec) NewTicket(context.Context) error           { return f.record("ticket") }
func (f *fakeExec) Export(_ context.Context, d string) error  { return f.record("export " + d) }
func (f *fakeExec) Get(_ context.Context, p string) error     { return f.record("get " + p) }
func (f *fakeExec) Admin(_ context.Context, what string, args []string) error {
	return f.record(strings.TrimSpace("admin " + what + " " + strings.Join(args, " ")))
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func run(f *fakeExec, lines ...string) {
	scanner := bufio.NewScanner(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	runREPL(context.Background(), f, func() string { return "" }, scanner)
}

func TestRunREPL_GatesCommandsUntilLogin(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{}

	run(f, "dreams", "login", "dreams sea", "dream 4", "set theme dark mode", "logout", "moods", "exit", "whoami")

	assert.Equal(t, []string{"login", "dreams sea", "dream 4", "set theme=dark mode", "logout"}, f.calls)
	assert.Contains(t, *out, "Please log in first (type 'login' or 'signup').")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_PublicCommands(t *testing.T) {
	captureOutput(t)
	f := &fakeExec{}

	run(f, "signup", "forgot", "reset", "verify abc", "whoami")

	assert.Equal(t, []string{"signup", "forgot", "reset", "verify abc", "whoami"}, f.calls)
}

func TestRunREPL_AdminGate(t *testing.T) {
	out := captureOutput(t)

	f := &fakeExec{loggedIn: true}
	run(f, "admin users")
	assert.Empty(t, f.calls)
	assert.Contains(t, *out, "Administrator access required.")

	f = &fakeExec{loggedIn: true, admin: true}
	run(f, "admin tickets open", "help")
	assert.Equal(t, []string{"admin tickets open"}, f.calls)
	assert.Contains(t, *out, helpAdmin)
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{loggedIn: true}

	run(f, "", "dream", "set theme", "export", "get", "mood", "verify", "admin", "frobnicate", "help")

	assert.Empty(t, f.calls)
	assert.Contains(t, *out, "Usage: dream <id>")
	assert.Contains(t, *out, "Usage: set <name|theme|language|notifications> <value>")
	assert.Contains(t, *out, "Unknown command: frobnicate")
	assert.Contains(t, *out, helpUser)
	assert.NotContains(t, *out, helpAdmin)
}

func TestRunREPL_ReportsErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{loggedIn: true, failWith: &api.StatusError{StatusCode: 404, Message: "Dream not found"}}

	run(f, "dream 99", "moods")

	assert.Equal(t, []string{"dream 99", "moods"}, f.calls)
	assert.Contains(t, *out, "Error: Dream not found")
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", api.ErrSessionExpired), "Session expired."},
		{fmt.Errorf("%w: dial tcp", api.ErrUnavailable), "Server unavailable, try again later."},
		{fmt.Errorf("%w: email", session.ErrInvalidInput), "Invalid input: invalid input: email"},
		{&api.StatusError{StatusCode: 500}, "Error: api: 500 Internal Server Error"},
		{errors.New("plain"), "Error: plain"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, describeError(tt.err))
	}
}
