// Package session turns a small mapping of named values into a
// tamper-evident cookie value and back.
//
// The mapping is carried as claims in an HMAC-SHA256 signed JWT. There is no
// server-side session table: the cookie IS the session, which keeps the
// service horizontally stateless. Anything wrong with an inbound token —
// missing, garbled, forged, expired, signed with a retired secret — degrades
// to an empty mapping, i.e. an anonymous request. Decoding never fails.
//
// SECRET ROTATION:
// Config.Secrets is an ordered list. The first secret signs every new token;
// all of them are tried when verifying, so tokens issued before a rotation
// stay valid until they expire. Rotating a secret out of the list invalidates
// everything it signed, which collapses those sessions to anonymous — by the
// rule above, that is silent, not an error.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultCookieName is the session cookie issued to browsers.
const DefaultCookieName = "RJ_session"

// DefaultMaxAge is the session lifetime: a fixed cap of 30 days from
// issuance, independent of activity.
const DefaultMaxAge = 30 * 24 * time.Hour

const issuer = "remix-jokes"

// Config fixes the codec's behaviour at construction time. None of it is
// tunable per call.
type Config struct {
	CookieName string        // defaults to DefaultCookieName
	Secrets    []string      // first signs new tokens, all verify old ones
	Secure     bool          // set the Secure cookie attribute (enable outside local dev)
	MaxAge     time.Duration // defaults to DefaultMaxAge
}

// Codec encodes and decodes the session mapping and owns the cookie
// attributes (HttpOnly, SameSite=Lax, Path=/).
type Codec struct {
	cookieName string
	secrets    [][]byte
	secure     bool
	maxAge     time.Duration
}

// New constructs a Codec. A missing secret is an unrecoverable configuration
// error: the process should refuse to start rather than issue unsigned
// sessions.
func New(cfg Config) (*Codec, error) {
	if len(cfg.Secrets) == 0 {
		return nil, errors.New("session: at least one secret must be configured")
	}
	for _, s := range cfg.Secrets {
		if s == "" {
			return nil, errors.New("session: secrets must not be empty")
		}
	}

	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	secrets := make([][]byte, len(cfg.Secrets))
	for i, s := range cfg.Secrets {
		secrets[i] = []byte(s)
	}

	return &Codec{
		cookieName: name,
		secrets:    secrets,
		secure:     cfg.Secure,
		maxAge:     maxAge,
	}, nil
}

// claims is the JWT payload: the registered claims plus the session mapping.
type claims struct {
	jwt.RegisteredClaims
	Values map[string]string `json:"vals,omitempty"`
}

// Encode serializes the mapping into a signed token.
//
// Encoding the same mapping twice yields two different byte strings (iat/exp
// are freshness material) but both decode to the same mapping, which is the
// reproducibility the callers rely on.
func (c *Codec) Encode(values map[string]string) (string, error) {
	now := time.Now()

	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
		Values: values,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := token.SignedString(c.secrets[0])
	if err != nil {
		return "", fmt.Errorf("session: signing token: %w", err)
	}

	return signed, nil
}

// Decode returns the mapping carried by the token, or an empty mapping when
// the token is absent, malformed, expired, or fails verification against
// every configured secret. Malformed input is "no session", never an error.
func (c *Codec) Decode(token string) map[string]string {
	if token == "" {
		return map[string]string{}
	}

	for _, secret := range c.secrets {
		cl := &claims{}
		parsed, err := jwt.ParseWithClaims(
			token,
			cl,
			func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("session: unexpected signing method")
				}
				return secret, nil
			},
			jwt.WithValidMethods([]string{"HS256"}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
		)
		if err != nil || !parsed.Valid {
			continue
		}
		if cl.Values == nil {
			return map[string]string{}
		}
		return cl.Values
	}

	return map[string]string{}
}

// DecodeRequest reads the session cookie off the request and decodes it.
// A request without the cookie is anonymous.
func (c *Codec) DecodeRequest(r *http.Request) map[string]string {
	cookie, err := r.Cookie(c.cookieName)
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous
		return map[string]string{}
	}
	return c.Decode(cookie.Value)
}

// WriteCookie attaches an encoded token to the response.
func (c *Codec) WriteCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie tells the browser to drop the session cookie immediately.
func (c *Codec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName reports the configured cookie name. Tests use it to present
// the cookie back on a follow-up request.
func (c *Codec) CookieName() string {
	return c.cookieName
}
