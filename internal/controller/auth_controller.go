package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
	"github.com/unclebandit/voicecampaign-backend/internal/validation"
)

type AuthController struct {
	AuthService *service.AuthService
	Logger      *zap.Logger
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := validation.DecodeJSON(r.Body, &req, "Invalid credentials"); err != nil {
		fail(w, c.Logger, err, "", "Failed to log in")
		return
	}
	session, err := c.AuthService.Login(r.Context(), req)
	if err != nil {
		fail(w, c.Logger, err, "", "Failed to log in")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := validation.DecodeJSON(r.Body, &creds, "Invalid registration data"); err != nil {
		fail(w, c.Logger, err, "", "Failed to register")
		return
	}
	session, err := c.AuthService.Register(r.Context(), creds)
	if err != nil {
		fail(w, c.Logger, err, "", "Failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	u, err := c.AuthService.Me(r.Context())
	if err != nil {
		fail(w, c.Logger, err, "User not found", "Failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
