// Package common contains constants and helpers shared by the client packages.
package common

const (
	// AuthorizationHeader carries the bearer access token.
	AuthorizationHeader = "Authorization"
	// BearerPrefix precedes the token in AuthorizationHeader.
	BearerPrefix = "Bearer "
	// RequestIDHeader correlates client log lines with backend logs.
	RequestIDHeader = "X-Request-ID"
)

// Persisted credential keys. Absence of any of them means "no session".
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// CredentialKeys lists every persisted credential key, in write order.
var CredentialKeys = []string{KeyAccessToken, KeyRefreshToken, KeyUser}

// KeySealSalt holds the argon2 salt of a sealed store. It is not a
// credential and survives Clear.
const KeySealSalt = "sealSalt"
