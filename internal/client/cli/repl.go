package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/dreamwell/internal/client/api"
	"github.com/dmitrijs2005/dreamwell/internal/client/session"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
	Verify(ctx context.Context, token string) error
	Whoami(ctx context.Context) error
	Profile(ctx context.Context) error
	Set(ctx context.Context, field, value string) error
	Dreams(ctx context.Context, keyword string) error
	Dream(ctx context.Context, id string) error
	NewDream(ctx context.Context) error
	Moods(ctx context.Context) error
	Mood(ctx context.Context, mood string) error
	Tickets(ctx context.Context) error
	NewTicket(ctx context.Context) error
	Export(ctx context.Context, dest string) error
	Get(ctx context.Context, path string) error
	Admin(ctx context.Context, what string, args []string) error
}

const (
	helpAnonymous = "Available commands: signup, login, forgot, reset, verify <token>, whoami, exit"
	helpUser      = "Available commands: whoami, profile, set <field> <value>, dreams [keyword], dream <id>, newdream, " +
		"moods, mood <MOOD>, tickets, ticket, export <dest>, get <path>, logout, exit"
	helpAdmin = "Admin commands: admin users|flagged|analytics|tickets [status]|toggle <id>"
)

// publicCommands run without a session.
var publicCommands = map[string]bool{
	"help": true, "signup": true, "login": true, "forgot": true, "reset": true,
	"verify": true, "whoami": true, "exit": true, "quit": true,
}

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit". Commands other than publicCommands require a logged-in user;
// "admin" additionally requires an administrator. Handler errors are
// reported and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("dw %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !publicCommands[cmd] && !a.isLoggedIn() {
			printlnFn("Please log in first (type 'login' or 'signup').")
			continue
		}
		if cmd == "admin" && !a.isAdmin() {
			printlnFn("Administrator access required.")
			continue
		}

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpUser)
				if a.isAdmin() {
					printlnFn(helpAdmin)
				}
			} else {
				printlnFn(helpAnonymous)
			}

		case "signup":
			err = a.Signup(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "forgot":
			err = a.Forgot(ctx)
		case "reset":
			err = a.Reset(ctx)
		case "verify":
			if len(args) == 0 {
				printlnFn("Usage: verify <token>")
				continue
			}
			err = a.Verify(ctx, args[0])
		case "whoami":
			err = a.Whoami(ctx)

		case "profile":
			err = a.Profile(ctx)
		case "set":
			if len(args) < 2 {
				printlnFn("Usage: set <name|theme|language|notifications> <value>")
				continue
			}
			err = a.Set(ctx, args[0], strings.Join(args[1:], " "))

		case "dreams":
			err = a.Dreams(ctx, strings.Join(args, " "))
		case "dream":
			if len(args) == 0 {
				printlnFn("Usage: dream <id>")
				continue
			}
			err = a.Dream(ctx, args[0])
		case "newdream":
			err = a.NewDream(ctx)

		case "moods":
			err = a.Moods(ctx)
		case "mood":
			if len(args) == 0 {
				printlnFn("Usage: mood <MOOD>")
				continue
			}
			err = a.Mood(ctx, args[0])

		case "tickets":
			err = a.Tickets(ctx)
		case "ticket":
			err = a.NewTicket(ctx)

		case "export":
			if len(args) == 0 {
				printlnFn("Usage: export <file | s3://bucket/key | https://presigned-url>")
				continue
			}
			err = a.Export(ctx, args[0])

		case "get":
			if len(args) == 0 {
				printlnFn("Usage: get <path>")
				continue
			}
			err = a.Get(ctx, args[0])

		case "admin":
			if len(args) == 0 {
				printlnFn(helpAdmin)
				continue
			}
			err = a.Admin(ctx, args[0], args[1:])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(describeError(err))
		}
	}
}

// describeError turns command errors into one line for the user.
func describeError(err error) string {
	var se *api.StatusError
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		return "Session expired."
	case errors.Is(err, api.ErrUnavailable):
		return "Server unavailable, try again later."
	case errors.Is(err, session.ErrInvalidInput):
		return "Invalid input: " + err.Error()
	case errors.As(err, &se) && se.Message != "":
		return "Error: " + se.Message
	default:
		return "Error: " + err.Error()
	}
}
