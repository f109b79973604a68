package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// Resources wraps the authenticated REST endpoints. Bodies belong to the
// backend's contract and are passed through as raw JSON.
type Resources struct {
	p *Pipeline
}

func NewResources(p *Pipeline) *Resources {
	return &Resources{p: p}
}

func (r *Resources) call(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	resp, err := r.p.Do(ctx, Request{Method: method, Path: path, Query: query, Body: body})
	if err != nil {
		return nil, err
	}
	return resp.Payload(), nil
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Dreams

func (r *Resources) ListDreams(ctx context.Context) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/dreams", nil, nil)
}

func (r *Resources) GetDream(ctx context.Context, dreamID int64) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/dreams/"+id(dreamID), nil, nil)
}

func (r *Resources) CreateDream(ctx context.Context, dream any) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPost, "/dreams", nil, dream)
}

func (r *Resources) UpdateDream(ctx context.Context, dreamID int64, dream any) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPut, "/dreams/"+id(dreamID), nil, dream)
}

func (r *Resources) DeleteDream(ctx context.Context, dreamID int64) error {
	_, err := r.call(ctx, http.MethodDelete, "/dreams/"+id(dreamID), nil, nil)
	return err
}

func (r *Resources) SearchDreams(ctx context.Context, keyword string) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/dreams/search", url.Values{"keyword": {keyword}}, nil)
}

func (r *Resources) ReinterpretDream(ctx context.Context, dreamID int64) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPost, "/dreams/"+id(dreamID)+"/reinterpret", nil, nil)
}

// Moods

func (r *Resources) ListMoods(ctx context.Context) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/moods", nil, nil)
}

// MoodsInRange lists entries between two dates formatted as YYYY-MM-DD.
func (r *Resources) MoodsInRange(ctx context.Context, startDate, endDate string) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/moods/range", url.Values{"startDate": {startDate}, "endDate": {endDate}}, nil)
}

func (r *Resources) CreateMood(ctx context.Context, mood any) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPost, "/moods", nil, mood)
}

func (r *Resources) UpdateMood(ctx context.Context, moodID int64, mood any) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPut, "/moods/"+id(moodID), nil, mood)
}

func (r *Resources) DeleteMood(ctx context.Context, moodID int64) error {
	_, err := r.call(ctx, http.MethodDelete, "/moods/"+id(moodID), nil, nil)
	return err
}

// User

func (r *Resources) GetProfile(ctx context.Context) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/user/profile", nil, nil)
}

func (r *Resources) UpdateProfile(ctx context.Context, changes map[string]any) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPut, "/user/profile", nil, changes)
}

func (r *Resources) UpdatePassword(ctx context.Context, currentPassword, newPassword string) error {
	_, err := r.call(ctx, http.MethodPut, "/user/password", nil,
		map[string]string{"currentPassword": currentPassword, "newPassword": newPassword})
	return err
}

func (r *Resources) DeleteAccount(ctx context.Context) error {
	_, err := r.call(ctx, http.MethodDelete, "/user/account", nil, nil)
	return err
}

// Analytics

func (r *Resources) Analytics(ctx context.Context) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/analytics", nil, nil)
}

// ExportData returns the raw export document; it is not JSON-unwrapped.
func (r *Resources) ExportData(ctx context.Context) ([]byte, error) {
	resp, err := r.p.Do(ctx, Request{Method: http.MethodGet, Path: "/analytics/export"})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Support

func (r *Resources) CreateTicket(ctx context.Context, ticket any) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPost, "/support/tickets", nil, ticket)
}

func (r *Resources) ListTickets(ctx context.Context) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/support/tickets", nil, nil)
}

func (r *Resources) GetTicket(ctx context.Context, ticketID int64) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/support/tickets/"+id(ticketID), nil, nil)
}

// Admin

func (r *Resources) AdminUsers(ctx context.Context) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/admin/users", nil, nil)
}

func (r *Resources) AdminUser(ctx context.Context, userID int64) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/admin/users/"+id(userID), nil, nil)
}

func (r *Resources) AdminToggleUserStatus(ctx context.Context, userID int64) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPut, "/admin/users/"+id(userID)+"/toggle-status", nil, nil)
}

func (r *Resources) AdminUserData(ctx context.Context, userID int64) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/admin/users/"+id(userID)+"/data", nil, nil)
}

func (r *Resources) AdminFlaggedDreams(ctx context.Context) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/admin/dreams/flagged", nil, nil)
}

func (r *Resources) AdminAnalytics(ctx context.Context) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/admin/analytics", nil, nil)
}

func (r *Resources) AdminTickets(ctx context.Context) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/admin/support/tickets", nil, nil)
}

func (r *Resources) AdminTicketsByStatus(ctx context.Context, status string) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/admin/support/tickets/status/"+status, nil, nil)
}

func (r *Resources) AdminReplyToTicket(ctx context.Context, ticketID int64, reply string) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPost, "/admin/support/tickets/"+id(ticketID)+"/reply", nil, map[string]string{"reply": reply})
}

func (r *Resources) AdminSetTicketStatus(ctx context.Context, ticketID int64, status string) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPut, "/admin/support/tickets/"+id(ticketID)+"/status", nil, map[string]string{"status": status})
}

func (r *Resources) AdminSetting(ctx context.Context, key string) (json.RawMessage, error) {
	return r.call(ctx, http.MethodGet, "/admin/settings/"+key, nil, nil)
}

func (r *Resources) AdminUpdateSetting(ctx context.Context, key, value string) (json.RawMessage, error) {
	return r.call(ctx, http.MethodPut, "/admin/settings/"+key, nil, map[string]string{"value": value})
}

// Raw issues an arbitrary authenticated request, for endpoints without a
// dedicated wrapper.
func (r *Resources) Raw(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	return r.call(ctx, method, path, nil, body)
}
