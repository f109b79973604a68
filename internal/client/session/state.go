package session

import "github.com/dmitrijs2005/dreamwell/internal/client/models"

type State int

const (
	StateUninitialized State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateAnonymous:
		return "ANONYMOUS"
	case StateAuthenticated:
		return "AUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// Reason names what caused a transition delivered to watchers.
type Reason string

const (
	ReasonInit            Reason = "init"
	ReasonLogin           Reason = "login"
	ReasonSignup          Reason = "signup"
	ReasonLogout          Reason = "logout"
	ReasonUserUpdated     Reason = "user_updated"
	ReasonTokensRefreshed Reason = "tokens_refreshed"
	ReasonSessionExpired  Reason = "session_expired"
)

// Event is passed to watchers after each change.
type Event struct {
	Reason Reason
	State  State
	User   *models.User
}

// Snapshot is a consistent copy of the session fields.
type Snapshot struct {
	State        State
	Loading      bool
	User         *models.User
	AccessToken  string
	RefreshToken string
}

func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil
}

func (s Snapshot) IsAdmin() bool {
	return s.User.IsAdmin()
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
