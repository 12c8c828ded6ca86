package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Decision is the outcome of thresholding a moderation score
type Decision string

// Moderation decisions, from least to most severe
const (
	DecisionAllow Decision = "allow"
	DecisionFlag  Decision = "flag"
	DecisionBlock Decision = "block"
)

// ModerationLog is the immutable audit record written for every
// accepted moderation request. Rows are never updated once inserted.
type ModerationLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	TenantID uuid.UUID  `json:"tenantId" db:"tenant_id"`
	APIKeyID *uuid.UUID `json:"apiKeyId,omitempty" db:"api_key_id"`

	Provider      string `json:"provider" db:"provider"`
	ProviderModel string `json:"providerModel" db:"provider_model"`

	// TextHash is a SHA-256 of the input; the text itself is not kept
	TextHash string `json:"textHash" db:"text_hash"`

	RawResponse json.RawMessage `json:"-" db:"raw_response"`

	Scores       ScoreMap `json:"scores" db:"scores"`
	OverallScore float64  `json:"overallScore" db:"overall_score"`
	Flagged      bool     `json:"flagged" db:"flagged"`
	Threshold    float64  `json:"threshold" db:"threshold"`
	Decision     Decision `json:"decision" db:"decision"`
}
