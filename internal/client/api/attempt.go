package api

// attemptState tracks one logical request through the refresh cycle:
//
//	sent --401--> refreshing --refreshed--> retried --> done
//
// A request in stateRetried never refreshes again.
type attemptState int

const (
	stateSent attemptState = iota
	stateRefreshing
	stateRetried
)

func (s attemptState) String() string {
	switch s {
	case stateSent:
		return "sent"
	case stateRefreshing:
		return "refreshing"
	case stateRetried:
		return "retried"
	default:
		return "unknown"
	}
}

type attempt struct {
	state attemptState
	// token is the access token the latest send carried.
	token string
}

// canRefresh reports whether a 401 on this attempt may start a refresh.
func (a *attempt) canRefresh() bool {
	return a.state == stateSent
}
