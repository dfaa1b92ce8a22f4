package authapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vidstream/cmd/identity"
	"vidstream/cmd/internal/auth/session"
)

func newTestHandler(t *testing.T) (*Handler, *http.ServeMux, identity.Store) {
	t.Helper()

	// Cheap hashing for tests only.
	t.Setenv("VIDSTREAM_PW_MEMORY_KIB", "8192")
	t.Setenv("VIDSTREAM_PW_ITERATIONS", "1")

	tokens, err := session.NewTokenManager(session.Config{
		Issuer:        "vidstream-test",
		AccessTTL:     15 * time.Minute,
		SessionTTL:    7 * 24 * time.Hour,
		ClockSkew:     time.Second,
		AccessSecret:  "access-secret-0123456789abcdef0123456789",
		SessionSecret: "session-secret-0123456789abcdef012345678",
	})
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	store := identity.NewMemoryStore()
	svc := session.NewService(store, tokens)

	h, err := NewHandler(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{MaxBodyBytes: 1 << 20, CookiePath: "/", SameSite: http.SameSiteLaxMode},
		store,
		svc,
	)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	mux := http.NewServeMux()
	h.Register(mux)
	return h, mux, store
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rr.Body.String())
	}
	return env
}

func registerAna(t *testing.T, mux *http.ServeMux) {
	t.Helper()
	rr := postJSON(t, mux, "/api/v1/users/register", map[string]string{
		"fullname": "Ana Ramos",
		"email":    "ana@x.io",
		"username": "ana",
		"password": "Secret123",
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: got %d, body %s", rr.Code, rr.Body.String())
	}
}

func loginAna(t *testing.T, mux *http.ServeMux) *httptest.ResponseRecorder {
	t.Helper()
	rr := postJSON(t, mux, "/api/v1/users/login", map[string]string{
		"identifier": "ana",
		"password":   "Secret123",
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: got %d, body %s", rr.Code, rr.Body.String())
	}
	return rr
}

func cookieByName(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestRegisterValidation(t *testing.T) {
	_, mux, _ := newTestHandler(t)

	rr := postJSON(t, mux, "/api/v1/users/register", map[string]string{
		"fullname": "Ana Ramos",
		"email":    "ana@x.io",
	}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: got %d", rr.Code)
	}

	rr = postJSON(t, mux, "/api/v1/users/register", map[string]string{
		"fullname": "Ana Ramos",
		"email":    "ana@x.io",
		"username": "ana",
		"password": "short",
	}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("weak password: got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr)
	if env.Success {
		t.Fatalf("expected success=false")
	}
}

func TestRegisterConflict(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)

	rr := postJSON(t, mux, "/api/v1/users/register", map[string]string{
		"fullname": "Other Ana",
		"email":    "ana@x.io",
		"username": "ana2",
		"password": "Secret123",
	}, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate email: got %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestLoginSetsCookiesAndBody(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)

	rr := loginAna(t, mux)

	access := cookieByName(t, rr, AccessCookieName)
	refresh := cookieByName(t, rr, RefreshCookieName)
	if !access.HttpOnly || !refresh.HttpOnly {
		t.Fatalf("auth cookies must be http-only")
	}

	env := decodeEnvelope(t, rr)
	if !env.Success {
		t.Fatalf("expected success=true")
	}
	data, _ := env.Data.(map[string]any)
	if data == nil {
		t.Fatalf("missing data object: %s", rr.Body.String())
	}
	if data["accessToken"] != access.Value {
		t.Fatalf("body access token must match cookie")
	}
	if data["refreshToken"] != refresh.Value {
		t.Fatalf("body refresh token must match cookie")
	}
	user, _ := data["user"].(map[string]any)
	if user == nil || user["username"] != "ana" || user["email"] != "ana@x.io" {
		t.Fatalf("unexpected user payload: %#v", data["user"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
}

func TestLoginFailures(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)

	rr := postJSON(t, mux, "/api/v1/users/login", map[string]string{
		"identifier": "nobody",
		"password":   "Secret123",
	}, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown user: got %d", rr.Code)
	}

	rr = postJSON(t, mux, "/api/v1/users/login", map[string]string{
		"identifier": "ana",
		"password":   "WrongPass1",
	}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: got %d", rr.Code)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Fatalf("failed login must not set cookies")
	}
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)
	login := loginAna(t, mux)
	refreshCookie := cookieByName(t, login, RefreshCookieName)

	rr := postJSON(t, mux, "/api/v1/users/refresh-token", nil, []*http.Cookie{refreshCookie})
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: got %d, body %s", rr.Code, rr.Body.String())
	}
	rotated := cookieByName(t, rr, RefreshCookieName)
	if rotated.Value == refreshCookie.Value {
		t.Fatalf("refresh must rotate the session token")
	}

	// Replaying the consumed token is a uniform 401.
	rr = postJSON(t, mux, "/api/v1/users/refresh-token", nil, []*http.Cookie{refreshCookie})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("replayed refresh: got %d", rr.Code)
	}

	// The rotated token still works.
	rr = postJSON(t, mux, "/api/v1/users/refresh-token", nil, []*http.Cookie{rotated})
	if rr.Code != http.StatusOK {
		t.Fatalf("rotated refresh: got %d", rr.Code)
	}
}

func TestRefreshBodyFallback(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)
	login := loginAna(t, mux)
	refreshCookie := cookieByName(t, login, RefreshCookieName)

	rr := postJSON(t, mux, "/api/v1/users/refresh-token", map[string]string{
		"refreshToken": refreshCookie.Value,
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("body refresh: got %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)

	rr := postJSON(t, mux, "/api/v1/users/refresh-token", map[string]string{
		"refreshToken": "not-a-token",
	}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: got %d", rr.Code)
	}

	rr = postJSON(t, mux, "/api/v1/users/refresh-token", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", rr.Code)
	}
}

func TestCurrentUserGate(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current_user", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no cookie: got %d", rr.Code)
	}

	login := loginAna(t, mux)
	accessCookie := cookieByName(t, login, AccessCookieName)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/current_user", nil)
	req.AddCookie(accessCookie)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("with cookie: got %d, body %s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	data, _ := env.Data.(map[string]any)
	if data == nil || data["username"] != "ana" {
		t.Fatalf("unexpected current_user payload: %s", rr.Body.String())
	}
}

func TestCurrentUserBearerHeader(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)
	login := loginAna(t, mux)
	accessCookie := cookieByName(t, login, AccessCookieName)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current_user", nil)
	req.Header.Set("Authorization", "Bearer "+accessCookie.Value)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("bearer auth: got %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestGateRejectsSessionTokenAsAccess(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)
	login := loginAna(t, mux)
	refreshCookie := cookieByName(t, login, RefreshCookieName)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current_user", nil)
	req.Header.Set("Authorization", "Bearer "+refreshCookie.Value)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("session token at access gate: got %d", rr.Code)
	}
}

func TestLogoutClearsSessionAndCookies(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)
	login := loginAna(t, mux)
	accessCookie := cookieByName(t, login, AccessCookieName)
	refreshCookie := cookieByName(t, login, RefreshCookieName)

	rr := postJSON(t, mux, "/api/v1/users/logout", nil, []*http.Cookie{accessCookie})
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: got %d, body %s", rr.Code, rr.Body.String())
	}
	for _, c := range rr.Result().Cookies() {
		if c.Value != "" || c.MaxAge >= 0 {
			t.Fatalf("logout must expire cookie %q", c.Name)
		}
	}

	// The old session token no longer refreshes.
	rr = postJSON(t, mux, "/api/v1/users/refresh-token", nil, []*http.Cookie{refreshCookie})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: got %d", rr.Code)
	}

	// Logout is idempotent while the access token is still valid.
	rr = postJSON(t, mux, "/api/v1/users/logout", nil, []*http.Cookie{accessCookie})
	if rr.Code != http.StatusOK {
		t.Fatalf("second logout: got %d", rr.Code)
	}
}

func TestPasswordChangeFlow(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)
	login := loginAna(t, mux)
	accessCookie := cookieByName(t, login, AccessCookieName)

	rr := postJSON(t, mux, "/api/v1/users/passwordchange", map[string]string{
		"oldPassword": "WrongPass1",
		"newPassword": "Another456",
	}, []*http.Cookie{accessCookie})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong old password: got %d", rr.Code)
	}

	rr = postJSON(t, mux, "/api/v1/users/passwordchange", map[string]string{
		"oldPassword": "Secret123",
		"newPassword": "Another456",
	}, []*http.Cookie{accessCookie})
	if rr.Code != http.StatusOK {
		t.Fatalf("password change: got %d, body %s", rr.Code, rr.Body.String())
	}

	rr = postJSON(t, mux, "/api/v1/users/login", map[string]string{
		"identifier": "ana",
		"password":   "Another456",
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("login with new password: got %d", rr.Code)
	}
	rr = postJSON(t, mux, "/api/v1/users/login", map[string]string{
		"identifier": "ana",
		"password":   "Secret123",
	}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("login with old password: got %d", rr.Code)
	}
}

func TestUpdateAccount(t *testing.T) {
	_, mux, _ := newTestHandler(t)
	registerAna(t, mux)
	login := loginAna(t, mux)
	accessCookie := cookieByName(t, login, AccessCookieName)

	newName := "Ana R."
	rr := postJSON(t, mux, "/api/v1/users/update_acc", map[string]any{
		"fullname": newName,
	}, []*http.Cookie{accessCookie})
	if rr.Code != http.StatusOK {
		t.Fatalf("update_acc: got %d, body %s", rr.Code, rr.Body.String())
	}
	env := decodeEnvelope(t, rr)
	data, _ := env.Data.(map[string]any)
	if data == nil || data["fullname"] != newName {
		t.Fatalf("unexpected update payload: %s", rr.Body.String())
	}

	rr = postJSON(t, mux, "/api/v1/users/update_acc", map[string]any{}, []*http.Cookie{accessCookie})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty update: got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, mux, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/login", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET login: got %d", rr.Code)
	}
}
