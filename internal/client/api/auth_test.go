package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/dreamwell/internal/client/credentials"
	"github.com/dmitrijs2005/dreamwell/internal/client/repositories/kv"
	"github.com/dmitrijs2005/dreamwell/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthAPI(t *testing.T, h http.HandlerFunc) *AuthAPI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	st := credentials.New(kv.NewMemoryBackend())
	require.NoError(t, st.Save(context.Background(), loggedIn()))

	p, err := New(srv.URL, st, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewAuthAPI(p)
}

func TestAuthAPI_Login(t *testing.T) {
	const user = `{"id":3,"name":"Bo","email":"bo@example.com","role":"ADMIN"}`

	for name, body := range map[string]string{
		"wrapped": `{"message":"welcome","data":{"accessToken":"A","refreshToken":"R","user":` + user + `}}`,
		"bare":    `{"accessToken":"A","refreshToken":"R","user":` + user + `}`,
	} {
		t.Run(name, func(t *testing.T) {
			a := newAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/login", r.URL.Path)
				assert.Empty(t, r.Header.Get(common.AuthorizationHeader))

				var in map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				assert.Equal(t, map[string]string{"email": "bo@example.com", "password": "pw"}, in)
				_, _ = io.WriteString(w, body)
			})

			res, err := a.Login(context.Background(), "bo@example.com", "pw")
			require.NoError(t, err)
			assert.Equal(t, "A", res.AccessToken)
			assert.Equal(t, "R", res.RefreshToken)
			require.NotNil(t, res.User)
			assert.True(t, res.User.IsAdmin())
			assert.Equal(t, "A", res.Credentials().AccessToken)
		})
	}
}

func TestAuthAPI_LoginRejected(t *testing.T) {
	refreshHit := false
	a := newAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == refreshPath {
			refreshHit = true
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Invalid email or password"}`)
	})

	_, err := a.Login(context.Background(), "bo@example.com", "bad")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Invalid email or password", se.Message)
	assert.False(t, refreshHit)
}

func TestAuthAPI_SignupIncompleteResponse(t *testing.T) {
	a := newAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signup", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":{"accessToken":"A"}}`)
	})

	_, err := a.Signup(context.Background(), "Bo", "bo@example.com", "pw")
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAuthAPI_PasswordFlows(t *testing.T) {
	var paths, queries []string
	a := newAuthAPI(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		queries = append(queries, r.URL.RawQuery)
		assert.Empty(t, r.Header.Get(common.AuthorizationHeader))
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	ctx := context.Background()

	require.NoError(t, a.ForgotPassword(ctx, "bo@example.com"))
	require.NoError(t, a.ResetPassword(ctx, "tok", "new-pw"))
	require.NoError(t, a.VerifyEmail(ctx, "v t"))

	assert.Equal(t, []string{
		"POST /auth/forgot-password",
		"POST /auth/reset-password",
		"GET /auth/verify-email",
	}, paths)
	assert.Equal(t, "token=v+t", queries[2])
}
