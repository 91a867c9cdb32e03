// Package session identifies anonymous shoppers with a signed cookie.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ctxKey string

const (
	CookieName = "sid"
	idCtxKey   = ctxKey("sessionID")
	cookieTTL  = 30 * 24 * time.Hour
	devSecret  = "devsessionsecret"
)

// Manager issues and verifies session cookies.
type Manager struct {
	secret []byte
	secure bool
}

// NewManager signs cookies with secret. Secure cookies are only sent over HTTPS.
func NewManager(secret string, secure bool) *Manager {
	if secret == "" {
		secret = devSecret
	}
	return &Manager{secret: []byte(secret), secure: secure}
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Issue creates a new session id and sets its cookie.
func (m *Manager) Issue(w http.ResponseWriter) string {
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id + "." + m.sign(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(cookieTTL),
	})
	return id
}

// Parse validates the cookie and returns the session id.
func (m *Manager) Parse(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	id, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(id))) {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// Middleware attaches the session id to the request context, issuing a new
// session when the cookie is missing or tampered with.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.Parse(r)
		if !ok {
			id = m.Issue(w)
		}
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}

// WithID stores the session id in context.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idCtxKey, id)
}

// FromContext extracts the session id.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idCtxKey).(string)
	return id, ok && id != ""
}

// ID returns the request's session id, or "" outside the middleware.
func ID(r *http.Request) string {
	id, _ := FromContext(r.Context())
	return id
}
