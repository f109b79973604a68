// Package api is the client's HTTP layer: an authenticated request pipeline
// plus thin wrappers over the backend's REST endpoints.
//
// # Pipeline
//
// Every request reads the current access token from the credential store and
// sends it as a bearer token. A 401 on a request that has not been retried
// triggers one refresh (POST /auth/refresh-token) and one resend. Refreshes
// are single-flight: concurrent 401s for the same stale token share one
// refresh call, and a request whose token was already replaced is simply
// resent with the new one.
//
// When the refresh itself fails, or the session holds no refresh token to
// try, the stored credentials are wiped, every OnSessionExpired handler
// runs, and the caller gets an error matching ErrSessionExpired. New tokens
// are written only if the stored record is still the one they were issued
// for; a logout or login that lands while the refresh is out wins.
//
// # Payloads
//
// The backend wraps most bodies as {"success":..,"message":..,"data":..} but
// not all of them. ParseEnvelope normalizes both shapes once, so callers
// always decode the inner payload.
//
// # Errors
//
// Non-2xx responses other than the recovered 401 come back as *StatusError
// carrying the status and raw body. Transport failures match ErrUnavailable.
package api
