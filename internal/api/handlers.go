package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/textmod/textmod-server/internal/auth"
	"github.com/textmod/textmod-server/internal/models"
	"github.com/textmod/textmod-server/internal/storage"
)

// ========== Auth handlers ==========

// HandleLogin handles dashboard user login
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	// Get user
	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Verify password
	if !s.auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Check user status
	if !user.IsActive {
		s.respondError(w, http.StatusForbidden, "account is disabled")
		return
	}

	// Generate tokens
	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	if err := s.store.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		log.Debug().Err(err).Str("user_id", user.ID.String()).Msg("Failed to update last login")
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleRefresh handles token refresh
func (s *RESTServer) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := s.auth.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil || !user.IsActive {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// ========== API key handlers ==========

// HandleListAPIKeys lists the tenant's API keys
func (s *RESTServer) HandleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)

	keys, err := s.store.ListAPIKeys(r.Context(), claims.TenantID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list API keys")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"keys":  keys,
		"total": len(keys),
	})
}

// HandleCreateAPIKey creates an API key and returns the raw secret.
// This response is the only time the secret is ever disclosed.
func (s *RESTServer) HandleCreateAPIKey(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)

	var req struct {
		Name string `json:"name" validate:"required,max=100"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	secret, key, err := auth.GenerateAPIKey(claims.TenantID, req.Name)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	if err := s.store.CreateAPIKey(r.Context(), key); err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to create API key")
		return
	}

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"key":    key,
		"secret": secret,
	})
}

// HandleDeactivateAPIKey soft-revokes an API key
func (s *RESTServer) HandleDeactivateAPIKey(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid key ID")
		return
	}

	if err := s.store.DeactivateAPIKey(r.Context(), claims.TenantID, id); err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "API key not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, "failed to deactivate API key")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ========== Moderation log handlers ==========

// HandleListModerationLogs lists the tenant's moderation logs
func (s *RESTServer) HandleListModerationLogs(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	filters := storage.ModerationLogFilters{TenantID: &claims.TenantID}
	if decision := r.URL.Query().Get("decision"); decision != "" {
		d := models.Decision(decision)
		filters.Decision = &d
	}

	entries, total, err := s.store.ListModerationLogs(r.Context(), filters, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to list moderation logs")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"logs":  entries,
		"total": total,
	})
}

// HandleGetModerationLog gets one moderation log entry
func (s *RESTServer) HandleGetModerationLog(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid log ID")
		return
	}

	entry, err := s.store.GetModerationLog(r.Context(), claims.TenantID, id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "log entry not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, "failed to get log entry")
		return
	}

	s.respondJSON(w, http.StatusOK, entry)
}

// ========== Usage handlers ==========

// HandleUsage reports the tenant's current-month usage against quota
func (s *RESTServer) HandleUsage(w http.ResponseWriter, r *http.Request) {
	claims := requestClaims(r)

	tenant, err := s.store.GetTenant(r.Context(), claims.TenantID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to get tenant")
		return
	}

	used, limit, err := s.ledger.Usage(r.Context(), tenant, time.Now())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to get usage")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"quota":     limit,
		"used":      used,
		"remaining": max64(limit-used, 0),
	})
}

// ========== Health ==========

// HandleHealth is the health check endpoint
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"name":    s.config.Server.Name,
		"version": s.config.Server.Version,
	})
}

// ========== Helpers ==========

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError responds with error
func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
