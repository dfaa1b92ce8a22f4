package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"vidstream/cmd/identity"
	"vidstream/cmd/internal/auth/session"
)

// Handler wires the HTTP auth endpoints to the credential store and the
// session rotation service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	store    identity.Store
	sessions *session.Service
	metrics  *Metrics
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithMetrics attaches prometheus auth metrics.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		if h != nil && m != nil {
			h.metrics = m
		}
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, store identity.Store, sessions *session.Service, opts ...HandlerOption) (*Handler, error) {
	if store == nil || sessions == nil {
		return nil, errors.New("authapi: nil store or session service")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{log: log, cfg: cfg, store: store, sessions: sessions}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/v1/users/register", h.handleRegister)
	mux.HandleFunc("/api/v1/users/login", h.handleLogin)
	mux.HandleFunc("/api/v1/users/refresh-token", h.handleRefresh)
	mux.HandleFunc("/api/v1/users/logout", h.RequireAuth(h.handleLogout))
	mux.HandleFunc("/api/v1/users/current_user", h.RequireAuth(h.handleCurrentUser))
	mux.HandleFunc("/api/v1/users/passwordchange", h.RequireAuth(h.handlePasswordChange))
	mux.HandleFunc("/api/v1/users/update_acc", h.RequireAuth(h.handleUpdateAccount))
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	defer h.metrics.timeOp("register", start)

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Fullname) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Username) == "" ||
		strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "fullname, email, username and password are required")
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		if identity.IsInvalidInput(err) {
			writeError(w, http.StatusBadRequest, "password does not meet policy")
			return
		}
		h.internalError(w, "auth.register.hash", err)
		return
	}

	user, err := h.store.CreateUser(r.Context(), identity.CreateUserInput{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.Fullname,
		PasswordHash: hash,
		AvatarURL:    req.AvatarURL,
		CoverURL:     req.CoverURL,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			h.observe("register", "conflict")
			writeError(w, http.StatusConflict, "user with email or username already exists")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid input")
		default:
			h.internalError(w, "auth.register", err)
		}
		return
	}

	h.observe("register", "ok")
	writeData(w, http.StatusCreated, toUserResponse(user), "user registered successfully")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	defer h.metrics.timeOp("login", start)

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identifier := strings.TrimSpace(req.identifier())
	password := strings.TrimSpace(req.Password)
	if identifier == "" || password == "" {
		writeError(w, http.StatusBadRequest, "identifier and password are required")
		return
	}

	now := time.Now().UTC()
	user, pair, err := h.sessions.Login(r.Context(), identifier, password, now)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrUserNotFound):
			h.observe("login", "not_found")
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, session.ErrInvalidCredentials):
			h.observe("login", "invalid_credentials")
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			h.internalError(w, "auth.login", err)
		}
		return
	}

	h.observe("login", "ok")
	h.setAuthCookies(w, pair)
	writeData(w, http.StatusOK, toLoginResponse(user, pair), "user logged in successfully")
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	defer h.metrics.timeOp("refresh", start)

	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	presented := sessionTokenFromRequest(r, req.RefreshToken)
	if presented == "" {
		writeError(w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	now := time.Now().UTC()
	_, pair, err := h.sessions.Refresh(r.Context(), presented, now)
	if err != nil {
		switch {
		case session.IsTokenFailure(err), errors.Is(err, session.ErrUserNotFound):
			// Deliberately indistinguishable: expired, forged and superseded
			// tokens all read the same from outside.
			h.observe("refresh", "rejected")
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			h.internalError(w, "auth.refresh", err)
		}
		return
	}

	h.observe("refresh", "ok")
	h.setAuthCookies(w, pair)
	writeData(w, http.StatusOK, refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.SessionToken,
	}, "access token refreshed successfully")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Logout(r.Context(), id.ID, time.Now().UTC()); err != nil {
		h.internalError(w, "auth.logout", err)
		return
	}

	h.observe("logout", "ok")
	h.clearAuthCookies(w)
	writeData(w, http.StatusOK, struct{}{}, "user logged out successfully")
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	writeData(w, http.StatusOK, toIdentityResponse(id), "current user details")
}

func (h *Handler) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OldPassword) == "" || strings.TrimSpace(req.NewPassword) == "" {
		writeError(w, http.StatusBadRequest, "old and new passwords are required")
		return
	}

	err := h.sessions.ChangePassword(r.Context(), id.ID, req.OldPassword, req.NewPassword, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "old password is incorrect")
		case errors.Is(err, session.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "unauthenticated")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "password does not meet policy")
		default:
			h.internalError(w, "auth.passwordchange", err)
		}
		return
	}

	writeData(w, http.StatusOK, struct{}{}, "password changed successfully")
}

func (h *Handler) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req updateAccountRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Fullname == nil && req.Email == nil && req.AvatarURL == nil && req.CoverURL == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	user, err := h.store.UpdateProfile(r.Context(), identity.UpdateProfileInput{
		UserID:    id.ID,
		FullName:  req.Fullname,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
		CoverURL:  req.CoverURL,
		Now:       time.Now().UTC(),
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			writeError(w, http.StatusConflict, "email already in use")
		case identity.IsInvalidInput(err):
			writeError(w, http.StatusBadRequest, "invalid input")
		case identity.IsNotFound(err):
			writeError(w, http.StatusUnauthorized, "unauthenticated")
		default:
			h.internalError(w, "auth.update_acc", err)
		}
		return
	}

	writeData(w, http.StatusOK, toUserResponse(user), "account details updated successfully")
}

// ---- helpers ----

func (h *Handler) observe(op, result string) {
	h.metrics.inc(op, result)
}

// internalError logs full detail server-side and returns an opaque 500.
// Diagnostic mode (non-production) additionally carries a stack in the body.
func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op+".fail", "err", err)
	h.observe(opLabel(op), "error")

	if h.cfg.Production {
		writeError(w, http.StatusInternalServerError, "something went wrong")
		return
	}
	writeErrorStack(w, http.StatusInternalServerError, "something went wrong: "+err.Error(), string(debug.Stack()))
}

func opLabel(op string) string {
	if i := strings.LastIndexByte(op, '.'); i >= 0 {
		return op[i+1:]
	}
	return op
}
