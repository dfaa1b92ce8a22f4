package authapi

import (
	"context"
	"net/http"
	"time"

	"vidstream/cmd/identity"
)

type contextKey struct{}

var identityKey contextKey

// IdentityFrom returns the authenticated identity attached to ctx, if any.
func IdentityFrom(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityKey).(identity.Identity)
	return id, ok
}

// withIdentity attaches id to the request context for the duration of the
// request only; no identity state is cached across requests.
func withIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// RequireAuth gates next behind access-token verification. The failure is
// uniform: absent, malformed, forged and expired tokens all yield the same
// 401 so the gate leaks nothing about why.
func (h *Handler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := accessTokenFromRequest(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		id, err := h.sessions.Authenticate(r.Context(), tok, time.Now().UTC())
		if err != nil {
			h.observe("authenticate", "fail")
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		h.observe("authenticate", "ok")
		next(w, r.WithContext(withIdentity(r.Context(), id)))
	}
}

// requireIdentity is the in-handler variant for routes that already ran
// through RequireAuth.
func requireIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated")
		return identity.Identity{}, false
	}
	return id, true
}
