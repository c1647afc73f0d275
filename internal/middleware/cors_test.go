package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantCreds  string
		wantStatus int
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://a.example", method: http.MethodGet, wantOrigin: "https://a.example", wantStatus: http.StatusTeapot},
		{name: "explicit", allowed: []string{"https://a.example"}, origin: "https://a.example", method: http.MethodGet, wantOrigin: "https://a.example", wantCreds: "true", wantStatus: http.StatusTeapot},
		{name: "explicit with trailing slash", allowed: []string{"https://a.example/"}, origin: "https://a.example", method: http.MethodGet, wantOrigin: "https://a.example", wantCreds: "true", wantStatus: http.StatusTeapot},
		{name: "explicit beats wildcard", allowed: []string{"*", "https://a.example"}, origin: "https://a.example", method: http.MethodGet, wantOrigin: "https://a.example", wantCreds: "true", wantStatus: http.StatusTeapot},
		{name: "denied", allowed: []string{"https://a.example"}, origin: "https://b.example", method: http.MethodGet, wantStatus: http.StatusTeapot},
		{name: "no origin", allowed: []string{"*"}, origin: "", method: http.MethodGet, wantStatus: http.StatusTeapot},
		{name: "preflight", allowed: []string{"*"}, origin: "https://a.example", method: http.MethodOptions, wantOrigin: "https://a.example", wantStatus: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/config", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			CORS(tt.allowed)(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := w.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCreds {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCreds)
			}
			if got := w.Header().Get("Vary"); got != "Origin" {
				t.Errorf("Vary = %q, want Origin", got)
			}
		})
	}
}
