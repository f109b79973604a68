package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Credentials is the persisted session record. The zero value means
// "no session".
type Credentials struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

// IsEmpty reports whether nothing at all is stored.
func (c Credentials) IsEmpty() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.User == nil
}

// Usable reports whether the record can back an authenticated session:
// an access token plus a user.
func (c Credentials) Usable() bool {
	return c.AccessToken != "" && c.User != nil
}

var errNotAnObject = errors.New("user snapshot is not a JSON object")

// EncodeUser serializes the user snapshot for storage.
func EncodeUser(u *User) ([]byte, error) {
	return json.Marshal(u)
}

// DecodeUser parses a stored user snapshot. Anything that is not a JSON
// object (including the literals null and undefined) is rejected.
func DecodeUser(b []byte) (*User, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotAnObject
	}
	var u User
	if err := json.Unmarshal(trimmed, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
