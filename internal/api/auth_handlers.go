package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finchley/taskchat/internal/auth"
	"github.com/finchley/taskchat/internal/store"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	user, err := s.store.CreateUser(req.Email, hash)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			s.errorResponse(w, http.StatusConflict, "email already registered")
		case errors.Is(err, store.ErrValidation):
			s.errorResponse(w, http.StatusUnprocessableEntity, "invalid email address")
		default:
			s.logger.Error("register failed", "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	s.logger.Info("user registered", "user", user.ID)
	s.issueToken(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	s.logger.Info("user logged in", "user", user.ID)
	s.issueToken(w, http.StatusOK, user)
}

func (s *Server) issueToken(w http.ResponseWriter, status int, user *store.User) {
	token, err := s.auth.GenerateToken(auth.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		s.logger.Error("token generation failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, status, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.auth.ExpirySeconds(),
		UserID:      user.ID,
		Email:       user.Email,
	})
}
