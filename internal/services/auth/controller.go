package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/novadock/hangar/internal/obs"
)

type Controller struct {
	uc  *Usecase
	log *zap.Logger
}

func NewController(uc *Usecase, log *zap.Logger) *Controller {
	return &Controller{uc: uc, log: log}
}

func (c *Controller) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", c.handleRegister)
	mux.HandleFunc("POST /auth/login", c.handleLogin)
	mux.HandleFunc("POST /auth/refresh", c.handleRefresh)
	mux.HandleFunc("POST /auth/logout", c.handleLogout)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (c *Controller) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	access, refresh, err := c.uc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		c.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh})
}

func (c *Controller) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	access, refresh, err := c.uc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// user-absent and password-mismatch surface identically
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		c.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh})
}

func (c *Controller) handleRefresh(w http.ResponseWriter, r *http.Request) {
	access, refresh, err := c.uc.Refresh(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "invalid token")
		case errors.Is(err, ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		default:
			c.serverError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: access, RefreshToken: refresh})
}

func (c *Controller) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := c.uc.Logout(r.Context(), r.Header.Get("Authorization")); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		c.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) serverError(w http.ResponseWriter, r *http.Request, err error) {
	obs.WithTrace(r.Context(), c.log).Error("auth handler", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
