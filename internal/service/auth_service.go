package service

import (
	"context"

	"github.com/unclebandit/voicecampaign-backend/internal/auth"
	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
	"github.com/unclebandit/voicecampaign-backend/internal/validation"
)

// Session is returned on login and registration.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AuthService struct {
	UserRepo repository.UserRepositoryInterface
	Issuer   *auth.Issuer
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*Session, error) {
	if err := validation.Struct(req, "Invalid credentials"); err != nil {
		return nil, err
	}
	u, err := s.UserRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, appErrors.ErrUnauthorized
	}
	return s.session(u)
}

func (s *AuthService) Register(ctx context.Context, creds model.Credentials) (*Session, error) {
	if err := validation.Struct(creds, "Invalid registration data"); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: creds.Username, PasswordHash: hash}
	if err := s.UserRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

// Me resolves the user carried by ctx.
func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	claims, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return s.UserRepo.GetByID(ctx, claims.UserID)
}

func (s *AuthService) session(u *model.User) (*Session, error) {
	token, err := s.Issuer.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}
