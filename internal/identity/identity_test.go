package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func resolve(t *testing.T, req *http.Request) (Visitor, *httptest.ResponseRecorder) {
	t.Helper()
	var got Visitor
	rec := httptest.NewRecorder()
	Middleware(true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})).ServeHTTP(rec, req)
	return got, rec
}

func TestMiddlewareIssuesDeviceCookie(t *testing.T) {
	v, rec := resolve(t, httptest.NewRequest(http.MethodGet, "/ws/game", nil))

	if !deviceIDPattern.MatchString(v.DeviceID) {
		t.Fatalf("invalid device id %q", v.DeviceID)
	}
	if v.TabID != DefaultTabID {
		t.Errorf("TabID = %q, want default", v.TabID)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AnonCookieName || cookies[0].Value != v.DeviceID {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("device cookie should be HttpOnly")
	}
	if cookies[0].Secure {
		t.Error("device cookie should not be Secure in development")
	}
}

func TestMiddlewareReusesCookieAndTab(t *testing.T) {
	existing := "anon_0123456789abcdef0123456789abcdef"
	req := httptest.NewRequest(http.MethodGet, "/ws/game?tab=tab-42", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: existing})

	v, _ := resolve(t, req)
	if v.DeviceID != existing {
		t.Errorf("DeviceID = %q, want %q", v.DeviceID, existing)
	}
	if v.TabID != "tab-42" {
		t.Errorf("TabID = %q, want tab-42", v.TabID)
	}
}

func TestMiddlewareHeaderWinsOverQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/game?tab=from-query", nil)
	req.Header.Set(TabHeaderName, "from-header")

	v, _ := resolve(t, req)
	if v.TabID != "from-header" {
		t.Errorf("TabID = %q, want from-header", v.TabID)
	}
}

func TestMiddlewareRejectsForgedValues(t *testing.T) {
	tests := []struct {
		name string
		tab  string
	}{
		{name: "path traversal", tab: "../../etc/passwd"},
		{name: "key separator", tab: "a:b"},
		{name: "blank", tab: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws/game", nil)
			req.Header.Set(TabHeaderName, tt.tab)
			req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "admin"})

			v, _ := resolve(t, req)
			if v.DeviceID == "admin" || !deviceIDPattern.MatchString(v.DeviceID) {
				t.Errorf("forged cookie accepted: %q", v.DeviceID)
			}
			if v.TabID != DefaultTabID {
				t.Errorf("forged tab accepted: %q", v.TabID)
			}
		})
	}
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	v := FromContext(context.Background())
	if v.DeviceID != "" || v.TabID != DefaultTabID {
		t.Errorf("FromContext() = %+v", v)
	}
}

func TestVisitorLabel(t *testing.T) {
	v := Visitor{DeviceID: "anon_0123456789abcdef0123456789abcdef"}
	if got := v.Label(); got != "anon-89abcdef" {
		t.Errorf("Label() = %q", got)
	}
	if got := (Visitor{}).Label(); got != "anon-user" {
		t.Errorf("empty Label() = %q", got)
	}
}

func TestIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	if got := IPFromRequest(req); got != "10.0.0.7" {
		t.Errorf("IPFromRequest() = %q", got)
	}
}
