package session

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

// DefaultCookieName is the cookie carrying the session ID.
const DefaultCookieName = "storefront_session"

// NewID returns a random 128-bit session ID, hex encoded.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("session: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

// validID reports whether id looks like an ID produced by NewID.
func validID(id string) bool {
	if len(id) != 32 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

// FromRequest returns the session ID carried by r, if any.
func FromRequest(r *http.Request, cookieName string) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || !validID(c.Value) {
		return "", false
	}
	return c.Value, true
}

// Ensure returns the session ID carried by r, issuing a new cookie on w when
// the request has none.
func Ensure(w http.ResponseWriter, r *http.Request, cookieName string, ttl time.Duration) string {
	if id, ok := FromRequest(r, cookieName); ok {
		return id
	}

	id := NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
