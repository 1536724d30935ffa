package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth/internal/obs"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user"
)

const (
	stateCookie    = "sso_state"
	stateCookieTTL = 10 * time.Minute
	stateLength    = 32
)

// Handler exposes the /auth endpoints.
type Handler struct {
	svc             *Service
	cookies         CookieSettings
	sso             IdentityProvider
	successRedirect string
	logger          *zap.SugaredLogger
}

// NewHandler wires the HTTP layer. sso may be nil, in which case the Google
// routes are not mounted.
func NewHandler(svc *Service, cookies CookieSettings, sso IdentityProvider, successRedirect string, logger *zap.SugaredLogger) *Handler {
	if successRedirect == "" {
		successRedirect = "/"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, cookies: cookies, sso: sso, successRedirect: successRedirect, logger: logger}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/signup", h.Signup)
	mux.HandleFunc("POST /auth/signin", h.Signin)
	mux.HandleFunc("PUT /auth/token", h.RefreshToken)
	mux.HandleFunc("DELETE /auth/token", h.Logout)
	mux.HandleFunc("GET /auth/me", h.RequireUser(h.Me))
	mux.HandleFunc("GET /auth/admin", h.RequireAdmin(h.Admin))
	if h.sso != nil {
		mux.HandleFunc("GET /auth/google/login", h.GoogleLogin)
		mux.HandleFunc("GET /auth/google/callback", h.GoogleCallback)
	}
}

// Credentials is the signup and signin payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	Email string `json:"email"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Credentials, bool) {
	var req Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid credentials payload", "err", err)
		h.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "Invalid request body."})
		return req, false
	}
	return req, true
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	u, err := h.svc.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, UserResponse{Email: u.Email})
}

func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: "Email and password are required."})
		return
	}
	tokens, err := h.svc.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.cookies.SetTokens(w, tokens)
	h.writeJSON(w, http.StatusOK, tokens)
}

// RefreshToken rotates the refresh cookie into a new token pair.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	_, refresh := h.cookies.read(r)
	tokens, err := h.svc.Rotate(r.Context(), refresh)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.cookies.SetTokens(w, tokens)
	h.writeJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	_, refresh := h.cookies.read(r)
	if err := h.svc.Logout(r.Context(), refresh); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.cookies.Clear(w)
	h.writeJSON(w, http.StatusOK, nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	u, err := h.svc.Me(r.Context(), claims)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, UserResponse{Email: u.Email})
}

func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, "ok")
}

func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken(stateLength)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int(stateCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.sso.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ck, err := r.Cookie(stateCookie)
	if err != nil || ck.Value == "" || subtle.ConstantTimeCompare([]byte(ck.Value), []byte(q.Get("state"))) != 1 {
		h.writeError(w, r, ErrBadRequest)
		return
	}
	code := q.Get("code")
	if code == "" {
		h.writeError(w, r, ErrBadRequest)
		return
	}

	email, err := h.sso.Exchange(r.Context(), code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tokens, err := h.svc.LoginSSO(r.Context(), email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/auth/google", MaxAge: -1, HttpOnly: true, Secure: h.cookies.Secure})
	h.cookies.SetTokens(w, tokens)
	http.Redirect(w, r, h.successRedirect, http.StatusFound)
}

type errorBody struct {
	Detail string `json:"detail"`
}

// statusFor maps an error to the response code and the message shown to
// the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized, "Authentication required."
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials."
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token."
	case errors.Is(err, ErrRefreshTokenNotValid):
		return http.StatusUnauthorized, "Refresh token is not valid."
	case errors.Is(err, ErrAuthorizationFailed):
		return http.StatusForbidden, "Authorization failed. User has no access."
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict, "Email is already taken."
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "Bad Request"
	case user.IsValidation(err):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error."
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	log := obs.WithTrace(r.Context(), h.logger)
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		log.Debugw("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	h.writeJSON(w, status, errorBody{Detail: detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
