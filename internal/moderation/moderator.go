package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/textmod/textmod-server/internal/models"
)

// Failure kinds. ErrProviderAuth means the backend rejected our own
// credentials; this is an operator problem, not a per-request one, and
// callers must surface it loudly instead of treating it like a
// transient backend error.
var (
	ErrProviderAuth      = errors.New("provider authentication failed")
	ErrMalformedResponse = errors.New("provider response contained no usable labels")
)

// Result is the normalized moderation result returned by any backend
type Result struct {
	// ModelKey is the public model key the scores were produced under,
	// after defaulting of unknown keys
	ModelKey      string          `json:"model"`
	Provider      string          `json:"provider"`
	ProviderModel string          `json:"providerModel"`
	Scores        models.ScoreMap `json:"categories"`
	OverallScore  float64         `json:"overall_score"`
	Flagged       bool            `json:"is_toxic"`
	Threshold     float64         `json:"threshold"`
	Decision      models.Decision `json:"decision"`
	Raw           json.RawMessage `json:"-"`
}

// Moderator defines the interface for content moderation backends
type Moderator interface {
	// ModerateText scores text against the model identified by modelKey.
	// It never downgrades a backend failure to an "allow" result; any
	// error means the caller must fail the request.
	ModerateText(ctx context.Context, text, modelKey string) (*Result, error)
}

// Messages matching these substrings (case-insensitive) indicate the
// backend rejected our credentials even when the transport error or
// status code alone does not say so.
var authErrorKeywords = []string{
	"unauthorized",
	"forbidden",
	"invalid token",
	"authentication",
	"invalid api key",
	"invalid api token",
	"authentication failed",
	"invalid credentials",
}

// IsAuthErrorMessage reports whether a backend error message looks like
// an authentication failure
func IsAuthErrorMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range authErrorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
