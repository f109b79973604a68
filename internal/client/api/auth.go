package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/dreamwell/internal/client/models"
)

// AuthResult is the token triple returned by login and signup.
type AuthResult struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// Credentials converts the result into the persisted record shape.
func (r AuthResult) Credentials() models.Credentials {
	return models.Credentials{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken, User: r.User}
}

// AuthAPI groups the unauthenticated /auth endpoints.
type AuthAPI struct {
	p *Pipeline
}

func NewAuthAPI(p *Pipeline) *AuthAPI {
	return &AuthAPI{p: p}
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (AuthResult, error) {
	return a.authenticate(ctx, "/auth/login", map[string]string{"email": email, "password": password})
}

func (a *AuthAPI) Signup(ctx context.Context, name, email, password string) (AuthResult, error) {
	return a.authenticate(ctx, "/auth/signup", map[string]string{"name": name, "email": email, "password": password})
}

func (a *AuthAPI) authenticate(ctx context.Context, path string, body any) (AuthResult, error) {
	var res AuthResult

	resp, err := a.p.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body, Anonymous: true})
	if err != nil {
		return res, err
	}
	if err := resp.Decode(&res); err != nil {
		return AuthResult{}, err
	}
	if res.AccessToken == "" || res.User == nil {
		return AuthResult{}, fmt.Errorf("%w: %s returned no access token or user", ErrMalformedResponse, path)
	}
	return res, nil
}

func (a *AuthAPI) ForgotPassword(ctx context.Context, email string) error {
	_, err := a.p.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/auth/forgot-password",
		Body:      map[string]string{"email": email},
		Anonymous: true,
	})
	return err
}

func (a *AuthAPI) ResetPassword(ctx context.Context, token, newPassword string) error {
	_, err := a.p.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/auth/reset-password",
		Body:      map[string]string{"token": token, "newPassword": newPassword},
		Anonymous: true,
	})
	return err
}

func (a *AuthAPI) VerifyEmail(ctx context.Context, token string) error {
	_, err := a.p.Do(ctx, Request{
		Method:    http.MethodGet,
		Path:      "/auth/verify-email",
		Query:     url.Values{"token": {token}},
		Anonymous: true,
	})
	return err
}
