package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/graphlapse/graphlapse/pkg/logging"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.users == nil || s.jwt == nil {
		s.respondError(w, http.StatusServiceUnavailable, "authentication not configured")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		s.logger.Warn("login failed", logging.String("username", req.Username))
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		s.logger.Error("token generation failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "token generation failed")
		return
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		s.logger.Error("refresh token generation failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	s.respondJSON(w, http.StatusOK, tokenResponse{
		Token:        token,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(s.config.TokenTTL),
		Role:         user.Role,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.users == nil || s.jwt == nil {
		s.respondError(w, http.StatusServiceUnavailable, "authentication not configured")
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	userID, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	// Refresh tokens only carry the user ID; the account must still exist
	// to mint a fresh access token.
	user := s.users.LookupByID(userID)
	if user == nil {
		s.respondError(w, http.StatusUnauthorized, "unknown user")
		return
	}

	token, err := s.jwt.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		s.logger.Error("token generation failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "token generation failed")
		return
	}

	s.respondJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(s.config.TokenTTL),
		Role:      user.Role,
	})
}
