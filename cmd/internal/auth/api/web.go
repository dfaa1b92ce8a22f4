package authapi

import (
	"net/http"
	"strings"
	"time"

	"vidstream/cmd/internal/auth/session"
)

// setAuthCookies delivers both token artifacts as http-only cookies.
// Secure is set in production; SameSite restricts cross-site sends.
func (h *Handler) setAuthCookies(w http.ResponseWriter, pair session.TokenPair) {
	h.setCookie(w, AccessCookieName, pair.AccessToken, pair.AccessExpiresAt)
	h.setCookie(w, RefreshCookieName, pair.SessionToken, pair.SessionExpiresAt)
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	h.expireCookie(w, AccessCookieName)
	h.expireCookie(w, RefreshCookieName)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.cfg.Production,
		SameSite: h.cfg.SameSite,
	})
}

func (h *Handler) expireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.Production,
		SameSite: h.cfg.SameSite,
	})
}

// accessTokenFromRequest extracts the access token from the cookie or the
// Authorization header (Bearer).
func accessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessCookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	return bearerToken(r)
}

// sessionTokenFromRequest extracts the session token from the cookie, with a
// request-body fallback for non-cookie clients.
func sessionTokenFromRequest(r *http.Request, bodyToken string) string {
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	return strings.TrimSpace(bodyToken)
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
