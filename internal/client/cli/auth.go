package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dreamwell/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(a.out, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Signup prompts for name, email and password and creates an account. The
// new session is adopted on success.
func (a *App) Signup(ctx context.Context) error {
	name, err := a.ask("Enter name")
	if err != nil {
		return err
	}
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}

	if err := a.session.Signup(ctx, name, email, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", a.session.User().Name)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", a.session.User().Email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Forgot(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	if err := a.auth.ForgotPassword(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "If the address is registered, a reset link is on its way.")
	return nil
}

func (a *App) Reset(ctx context.Context) error {
	token, err := a.ask("Enter reset token")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Enter new password")
	if err != nil {
		return err
	}
	if err := a.auth.ResetPassword(ctx, token, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password updated. You can log in now.")
	return nil
}

func (a *App) Verify(ctx context.Context, token string) error {
	if err := a.auth.VerifyEmail(ctx, token); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Email verified.")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	snap := a.session.Snapshot()
	if snap.User == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> role=%s state=%s\n", snap.User.Name, snap.User.Email, snap.User.Role, snap.State)
	return nil
}
