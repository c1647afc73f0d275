// Package identity resolves who is playing: an anonymous device ID kept in a
// cookie plus a browser-tab ID, so two tabs on one device run separate games.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	AnonCookieName = "helpdesk_anon_id"
	TabHeaderName  = "X-Helpdesk-Tab"
	TabQueryParam  = "tab"
	DefaultTabID   = "default"
	cookieLifetime = 30 * 24 * time.Hour
)

var (
	deviceIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)
	tabIDPattern    = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)
)

// Visitor is the resolved identity of one request.
type Visitor struct {
	DeviceID string
	TabID    string
}

// Label is a short display name safe to show in logs and UIs.
func (v Visitor) Label() string {
	if len(v.DeviceID) > 13 {
		return "anon-" + v.DeviceID[len(v.DeviceID)-8:]
	}
	return "anon-user"
}

type visitorKey struct{}

// FromContext returns the visitor stored by Middleware. Requests that never
// passed through it get an empty device and the default tab.
func FromContext(ctx context.Context) Visitor {
	if v, ok := ctx.Value(visitorKey{}).(Visitor); ok {
		return v
	}
	return Visitor{TabID: DefaultTabID}
}

// NewContext stores v in ctx.
func NewContext(ctx context.Context, v Visitor) context.Context {
	v.TabID = cleanTabID(v.TabID)
	return context.WithValue(ctx, visitorKey{}, v)
}

// Middleware resolves the visitor and refreshes the device cookie on every
// request so active players keep their games.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID, err := deviceFromCookie(r)
			if err != nil {
				http.Error(w, `{"error":"failed to establish anonymous identity"}`, http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, deviceCookie(deviceID, !isDev))

			v := Visitor{DeviceID: deviceID, TabID: tabFromRequest(r)}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), v)))
		})
	}
}

func deviceFromCookie(r *http.Request) (string, error) {
	if c, err := r.Cookie(AnonCookieName); err == nil && deviceIDPattern.MatchString(c.Value) {
		return c.Value, nil
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate device id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

func deviceCookie(id string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     AnonCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cookieLifetime.Seconds()),
		Expires:  time.Now().Add(cookieLifetime),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
}

// Browsers cannot set headers on a websocket upgrade, so the query
// parameter is accepted too.
func tabFromRequest(r *http.Request) string {
	if tab := r.Header.Get(TabHeaderName); tab != "" {
		return cleanTabID(tab)
	}
	return cleanTabID(r.URL.Query().Get(TabQueryParam))
}

// Tab IDs become part of session keys and transcript paths, so ':' and '/'
// are rejected.
func cleanTabID(id string) string {
	id = strings.TrimSpace(id)
	if !tabIDPattern.MatchString(id) {
		return DefaultTabID
	}
	return id
}

// IPFromRequest returns the remote host without its port.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
