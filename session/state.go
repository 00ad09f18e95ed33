package session

// State is the explicit session state. Transitions are exhaustive: there is
// no boolean flag soup to derive "authenticated" from, and the answer to
// whether a token alone counts is fixed here: it does not. A present token
// without a fetched profile is Authenticating, nothing more.
type State int

const (
	// Anonymous: no token held.
	Anonymous State = iota

	// Authenticating: a token is held but the profile has not been
	// fetched yet (app boot with a persisted record, or mid-login).
	Authenticating

	// Authenticated: token and profile both present.
	Authenticated

	// Expired: the server rejected the token; the session was torn down
	// and the user must log in again.
	Expired
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	}
	return "unknown"
}
