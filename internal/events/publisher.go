// Package events publishes moderation events to NATS for downstream
// consumers such as the dashboard live feed. Publishing is optional and
// best-effort; the moderation log in the store is the durable record.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/textmod/textmod-server/internal/models"
)

// Publisher publishes moderation events
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher creates a Publisher over an established NATS connection
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// ModerationEvent is the wire form of a published moderation event.
// It carries no raw text or raw provider payload.
type ModerationEvent struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Provider      string          `json:"provider"`
	ProviderModel string          `json:"provider_model"`
	TextHash      string          `json:"text_hash"`
	OverallScore  float64         `json:"overall_score"`
	Flagged       bool            `json:"flagged"`
	Decision      models.Decision `json:"decision"`
}

// PublishModeration publishes a logged moderation decision on subject
// moderation.event.<tenant>. Failures are logged and dropped.
func (p *Publisher) PublishModeration(tenantID string, entry *models.ModerationLog) {
	event := ModerationEvent{
		ID:            entry.ID.String(),
		TenantID:      tenantID,
		CreatedAt:     entry.CreatedAt,
		Provider:      entry.Provider,
		ProviderModel: entry.ProviderModel,
		TextHash:      entry.TextHash,
		OverallScore:  entry.OverallScore,
		Flagged:       entry.Flagged,
		Decision:      entry.Decision,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal moderation event")
		return
	}

	subject := "moderation.event." + tenantID
	if err := p.nc.Publish(subject, data); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("Failed to publish moderation event")
	}
}
