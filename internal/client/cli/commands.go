package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/dreamwell/internal/client/export"
	"github.com/dmitrijs2005/dreamwell/internal/client/models"
)

// printJSON pretty-prints raw, falling back to the raw text.
func (a *App) printJSON(raw []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Fprintln(a.out, string(raw))
		return
	}
	fmt.Fprintln(a.out, buf.String())
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (a *App) Profile(ctx context.Context) error {
	u, err := a.session.LoadProfile(ctx)
	if err != nil {
		return err
	}
	return a.printUser(u)
}

func (a *App) printUser(u *models.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	a.printJSON(b)
	return nil
}

// settableFields maps "set" command names to profile JSON fields.
var settableFields = map[string]string{
	"name":          "name",
	"theme":         "theme",
	"language":      "language",
	"notifications": "notificationsEnabled",
}

func (a *App) Set(ctx context.Context, field, value string) error {
	key, ok := settableFields[field]
	if !ok {
		return fmt.Errorf("unknown field %q (name, theme, language, notifications)", field)
	}

	var v any = value
	if key == "notificationsEnabled" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("notifications must be true or false")
		}
		v = b
	}

	u, err := a.session.SaveProfile(ctx, map[string]any{key: v})
	if err != nil {
		return err
	}
	return a.printUser(u)
}

func (a *App) Dreams(ctx context.Context, keyword string) error {
	var (
		raw json.RawMessage
		err error
	)
	if keyword != "" {
		raw, err = a.resources.SearchDreams(ctx, keyword)
	} else {
		raw, err = a.resources.ListDreams(ctx)
	}
	if err != nil {
		return err
	}
	a.printJSON(raw)
	return nil
}

func (a *App) Dream(ctx context.Context, idStr string) error {
	id, err := parseID(idStr)
	if err != nil {
		return err
	}
	raw, err := a.resources.GetDream(ctx, id)
	if err != nil {
		return err
	}
	a.printJSON(raw)
	return nil
}

func (a *App) NewDream(ctx context.Context) error {
	title, err := a.ask("Dream title")
	if err != nil {
		return err
	}
	text, err := getMultiline(a.reader, "Describe the dream", a.out)
	if err != nil {
		return err
	}
	if title == "" || text == "" {
		return fmt.Errorf("title and description are required")
	}

	raw, err := a.resources.CreateDream(ctx, map[string]any{
		"title":     title,
		"dreamText": text,
		"dreamDate": time.Now().Format("2006-01-02T15:04"),
		"isPrivate": true,
	})
	if err != nil {
		return err
	}
	a.printJSON(raw)
	return nil
}

func (a *App) Moods(ctx context.Context) error {
	raw, err := a.resources.ListMoods(ctx)
	if err != nil {
		return err
	}
	a.printJSON(raw)
	return nil
}

func (a *App) Mood(ctx context.Context, mood string) error {
	notes, err := a.ask("Notes (optional)")
	if err != nil {
		return err
	}
	raw, err := a.resources.CreateMood(ctx, map[string]any{
		"entryDate": time.Now().Format("2006-01-02"),
		"mood":      strings.ToUpper(mood),
		"notes":     notes,
	})
	if err != nil {
		return err
	}
	a.printJSON(raw)
	return nil
}

func (a *App) Tickets(ctx context.Context) error {
	raw, err := a.resources.ListTickets(ctx)
	if err != nil {
		return err
	}
	a.printJSON(raw)
	return nil
}

func (a *App) NewTicket(ctx context.Context) error {
	subject, err := a.ask("Subject")
	if err != nil {
		return err
	}
	message, err := getMultiline(a.reader, "Message", a.out)
	if err != nil {
		return err
	}

	u := a.session.User()
	raw, err := a.resources.CreateTicket(ctx, map[string]any{
		"name":    u.Name,
		"email":   u.Email,
		"subject": subject,
		"message": message,
	})
	if err != nil {
		return err
	}
	a.printJSON(raw)
	return nil
}

func (a *App) Export(ctx context.Context, dest string) error {
	data, err := a.resources.ExportData(ctx)
	if err != nil {
		return err
	}
	sink, err := export.Open(ctx, dest, a.config.S3)
	if err != nil {
		return err
	}
	if err := sink.Write(ctx, data); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d bytes to %s\n", len(data), sink)
	return nil
}

// Get issues an authenticated GET for any backend path.
func (a *App) Get(ctx context.Context, path string) error {
	raw, err := a.resources.Raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	a.printJSON(raw)
	return nil
}

func (a *App) Admin(ctx context.Context, what string, args []string) error {
	var (
		raw json.RawMessage
		err error
	)
	switch what {
	case "users":
		raw, err = a.resources.AdminUsers(ctx)
	case "flagged":
		raw, err = a.resources.AdminFlaggedDreams(ctx)
	case "analytics":
		raw, err = a.resources.AdminAnalytics(ctx)
	case "tickets":
		if len(args) > 0 {
			raw, err = a.resources.AdminTicketsByStatus(ctx, strings.ToUpper(args[0]))
		} else {
			raw, err = a.resources.AdminTickets(ctx)
		}
	case "toggle":
		if len(args) == 0 {
			return fmt.Errorf("usage: admin toggle <user id>")
		}
		id, perr := parseID(args[0])
		if perr != nil {
			return perr
		}
		raw, err = a.resources.AdminToggleUserStatus(ctx, id)
	default:
		return fmt.Errorf("usage: admin users|flagged|analytics|tickets [status]|toggle <id>")
	}
	if err != nil {
		return err
	}
	a.printJSON(raw)
	return nil
}
