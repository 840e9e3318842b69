package auth

import (
	"net/http"
	"net/url"

	"github.com/TomatoBigBig/remix-jokes/internal/apperror"
	"github.com/TomatoBigBig/remix-jokes/internal/session"
)

// UserIDKey is the session mapping key that carries the current user's id.
// A session with no such key, or with anything other than a non-empty string
// under it, is treated identically to no session at all.
const UserIDKey = "userId"

// LoginPath is where unauthenticated users are sent to establish identity.
const LoginPath = "/login"

// Guard turns the presence or absence of a session identity into an
// allow/deny/redirect decision. It owns no storage; the cookie is the state.
type Guard struct {
	sessions *session.Codec
}

// NewGuard creates a Guard over the given session codec.
func NewGuard(sessions *session.Codec) *Guard {
	return &Guard{sessions: sessions}
}

// Decision is the outcome of an authentication check.
//
// This is deliberately a value, not a panic/recover or error-driven escape:
// handlers pattern-match on it and return early themselves, so no partial
// work can be committed before the check.
type Decision struct {
	UserID     string // set when the request carries a valid identity
	RedirectTo string // login URL (with return path) when it does not
}

// Allowed reports whether the request is authenticated.
func (d Decision) Allowed() bool {
	return d.UserID != ""
}

// CurrentUserID resolves the caller's user id from the session cookie, or ""
// for an anonymous request. It never fails: a bad cookie is anonymous.
func (g *Guard) CurrentUserID(r *http.Request) string {
	return g.sessions.DecodeRequest(r)[UserIDKey]
}

// RequireUserID checks the request for an authenticated identity, using the
// request's own path as the post-login return target.
func (g *Guard) RequireUserID(r *http.Request) Decision {
	return g.RequireUserIDTo(r, r.URL.Path)
}

// RequireUserIDTo is RequireUserID with an explicit return target, for
// actions whose form page lives at a different path than the POST endpoint.
//
// The redirect URL carries the target as a redirectTo query parameter so the
// login flow can send the user back to where they started.
func (g *Guard) RequireUserIDTo(r *http.Request, redirectTo string) Decision {
	if userID := g.CurrentUserID(r); userID != "" {
		return Decision{UserID: userID}
	}

	params := url.Values{}
	params.Set("redirectTo", redirectTo)
	return Decision{RedirectTo: LoginPath + "?" + params.Encode()}
}

// RequireOwnership compares a resource's owner against the current user.
// A mismatch is a terminal authorization failure — callers render a
// "not yours" page, they do not redirect to login.
func RequireOwnership(ownerID, userID string) error {
	if ownerID != userID {
		return apperror.Forbidden("Pssh, nice try. That's not your joke")
	}
	return nil
}
