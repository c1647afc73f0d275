// Package middleware provides HTTP middleware for the helpdesk server.
package middleware

import (
	"net/http"
	"strings"
)

// The game API is read-only; play happens over the websocket.
const (
	corsMethods = "GET, OPTIONS"
	corsHeaders = "Content-Type, X-Helpdesk-Tab"
)

type originPolicy struct {
	any      bool
	explicit map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{explicit: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			p.any = true
		default:
			p.explicit[o] = struct{}{}
		}
	}
	return p
}

// allow reports whether origin may read responses and whether it may send
// the device cookie along. Wildcard matches never get credentials.
func (p originPolicy) allow(origin string) (ok, credentials bool) {
	if origin == "" {
		return false, false
	}
	if _, found := p.explicit[origin]; found {
		return true, true
	}
	return p.any, false
}

// CORS returns middleware that answers preflights and sets CORS headers for
// the configured origins.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newOriginPolicy(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			if ok, creds := policy.allow(origin); ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", corsMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
				if creds {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
