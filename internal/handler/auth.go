package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/ruelux/pos/internal/auth"
	"github.com/ruelux/pos/internal/board"
	"github.com/ruelux/pos/internal/erp"
	"github.com/ruelux/pos/internal/middleware"
)

// ERPAuth defines the ERP calls needed by auth handlers.
// Satisfied by *erp.Client; narrow interface for testability.
type ERPAuth interface {
	Login(ctx context.Context, usr, pwd string) (erp.LoginResult, error)
	Logout(ctx context.Context) error
	LoggedUser(ctx context.Context) (string, error)
	UserRoles(ctx context.Context, email string) ([]string, error)
}

// CartDropper discards a session's cart. Satisfied by *cart.Store.
type CartDropper interface {
	Drop(session string)
}

// AuthHandler handles login, logout and the session probe.
type AuthHandler struct {
	erp       ERPAuth
	carts     CartDropper
	jwtSecret string
	ttl       time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(erp ERPAuth, carts CartDropper, jwtSecret string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{erp: erp, carts: carts, jwtSecret: jwtSecret, ttl: ttl}
}

// RegisterRoutes registers the public login endpoint.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// RegisterSessionRoutes registers endpoints that need an authenticated
// session. Mount behind middleware.Authenticate.
func (h *AuthHandler) RegisterSessionRoutes(r chi.Router) {
	r.Post("/auth/logout", h.Logout)
	r.Get("/auth/me", h.Me)
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	Email      string   `json:"email"`
	FullName   string   `json:"full_name,omitempty"`
	Role       string   `json:"role"`
	Tabs       []string `json:"tabs"`
	InitialTab string   `json:"initial_tab"`
	ShowTotals bool     `json:"show_totals"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

// --- Handlers ---

// Login checks the credentials against the ERP, resolves the staff role and
// issues a session token carrying the ERP session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	res, err := h.erp.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, erp.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		writeError(w, err, "login")
		return
	}

	ctx := erp.WithSession(r.Context(), res.SessionID)
	roles, err := h.erp.UserRoles(ctx, req.Email)
	if err != nil {
		writeError(w, err, "read user roles")
		return
	}
	role := erp.ResolveRole(roles)
	if role == "" {
		log.Warn().Str("email", req.Email).Strs("roles", roles).Msg("no POS role for user")
	}

	token, claims, err := auth.GenerateToken(h.jwtSecret, h.ttl, auth.Identity{
		Email:      req.Email,
		FullName:   res.FullName,
		Role:       role,
		ERPSession: res.SessionID,
	})
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      toUserResponse(claims),
	})
}

// Logout ends the ERP session and discards the session's cart. The ERP call
// failing does not keep the user signed in.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w)
		return
	}

	if err := h.erp.Logout(r.Context()); err != nil && !errors.Is(err, erp.ErrUnauthorized) {
		log.Warn().Err(err).Str("email", claims.Email).Msg("erp logout")
	}
	h.carts.Drop(claims.SessionID.String())

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me confirms the ERP session is still alive and returns the signed-in user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeUnauthorized(w)
		return
	}

	user, err := h.erp.LoggedUser(r.Context())
	if err != nil {
		writeError(w, err, "probe session")
		return
	}
	if !strings.EqualFold(user, claims.Email) {
		writeUnauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(claims))
}

func toUserResponse(c *auth.Claims) userResponse {
	return userResponse{
		Email:      c.Email,
		FullName:   c.FullName,
		Role:       c.Role,
		Tabs:       board.Tabs(c.Role),
		InitialTab: board.InitialTab(c.Role),
		ShowTotals: board.ShowsTotals(c.Role),
	}
}
