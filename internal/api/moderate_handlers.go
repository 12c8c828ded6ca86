package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/textmod/textmod-server/internal/auth"
	"github.com/textmod/textmod-server/internal/moderation"
	"github.com/textmod/textmod-server/internal/pipeline"
	"github.com/textmod/textmod-server/internal/quota"
)

// ModerateRequest is the body of POST /api/v1/moderate
type ModerateRequest struct {
	Text  string `json:"text" validate:"required"`
	Model string `json:"model"`
}

// ModerateResponse is the success body of POST /api/v1/moderate
type ModerateResponse struct {
	ID            string             `json:"id"`
	Model         string             `json:"model"`
	Provider      string             `json:"provider"`
	ProviderModel string             `json:"providerModel"`
	Decision      string             `json:"decision"`
	OverallScore  float64            `json:"overall_score"`
	Threshold     float64            `json:"threshold"`
	Categories    map[string]float64 `json:"categories"`
	CreatedAt     string             `json:"created_at"`
}

// HandleModerate scores a piece of text for the authenticated tenant
func (s *RESTServer) HandleModerate(w http.ResponseWriter, r *http.Request) {
	var req ModerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.pipeline.Process(r.Context(), pipeline.Request{
		Secret:   apiKeySecret(r),
		Text:     req.Text,
		ModelKey: req.Model,
	})
	if err != nil {
		s.respondModerateError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, ModerateResponse{
		ID:            resp.Log.ID.String(),
		Model:         resp.Result.ModelKey,
		Provider:      resp.Result.Provider,
		ProviderModel: resp.Result.ProviderModel,
		Decision:      string(resp.Result.Decision),
		OverallScore:  resp.Result.OverallScore,
		Threshold:     resp.Result.Threshold,
		Categories:    resp.Result.Scores,
		CreatedAt:     resp.Log.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// respondModerateError maps pipeline failure kinds to HTTP statuses.
// Provider failures surface as a generic 500; in particular a backend
// credential problem is never echoed to the caller.
func (s *RESTServer) respondModerateError(w http.ResponseWriter, err error) {
	var exceeded *quota.ExceededError

	switch {
	case errors.Is(err, auth.ErrInvalidKey):
		s.respondError(w, http.StatusUnauthorized, "invalid API key")

	case errors.Is(err, pipeline.ErrEmptyText):
		s.respondError(w, http.StatusBadRequest, "text is required")

	case errors.Is(err, pipeline.ErrRateLimited):
		s.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")

	case errors.As(err, &exceeded):
		s.respondJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"error": "monthly quota exceeded",
			"quota": exceeded.Quota,
			"used":  exceeded.Used,
		})

	case errors.Is(err, moderation.ErrProviderAuth):
		// Already logged at error severity by the pipeline
		s.respondError(w, http.StatusInternalServerError, "moderation service error")

	case errors.Is(err, moderation.ErrMalformedResponse):
		log.Warn().Err(err).Msg("Classification backend returned unusable response")
		s.respondError(w, http.StatusInternalServerError, "moderation service error")

	default:
		log.Error().Err(err).Msg("Moderation request failed")
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
