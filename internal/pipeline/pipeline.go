// Package pipeline sequences a moderation request through credential
// resolution, quota enforcement, provider invocation, audit logging and
// usage accounting. Each stage is terminal on failure and no failure is
// ever downgraded to an "allow" decision.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/textmod/textmod-server/internal/auth"
	"github.com/textmod/textmod-server/internal/moderation"
	"github.com/textmod/textmod-server/internal/models"
	"github.com/textmod/textmod-server/internal/quota"
	"github.com/textmod/textmod-server/pkg/crypto"
)

// ErrEmptyText is returned when the request carries no text to score
var ErrEmptyText = errors.New("text is required")

// ErrRateLimited is returned when the tenant exceeded its burst rate
// window. Distinct from quota exhaustion, which carries the monthly
// numbers.
var ErrRateLimited = errors.New("rate limit exceeded")

// Request is one inbound moderation request
type Request struct {
	Secret   string
	Text     string
	ModelKey string
}

// Response is the terminal success state of the pipeline
type Response struct {
	Log    *models.ModerationLog
	Result *moderation.Result
}

// LogStore is the slice of storage the pipeline needs
type LogStore interface {
	CreateModerationLog(ctx context.Context, entry *models.ModerationLog) error
}

// Publisher receives moderation events after they are durably logged.
// Implementations must be non-blocking best-effort; a nil Publisher
// disables publishing.
type Publisher interface {
	PublishModeration(tenantID string, entry *models.ModerationLog)
}

// Limiter guards against per-tenant request bursts. A nil Limiter
// disables the stage.
type Limiter interface {
	Allow(ctx context.Context, tenantID string) (bool, error)
}

// Options carries the optional pipeline collaborators
type Options struct {
	Events       Publisher
	Limiter      Limiter
	DefaultModel string
}

// Pipeline orchestrates the moderation request stages
type Pipeline struct {
	resolver     *auth.Resolver
	ledger       *quota.Ledger
	moderator    moderation.Moderator
	logs         LogStore
	events       Publisher
	limiter      Limiter
	defaultModel string
}

// New creates a Pipeline
func New(resolver *auth.Resolver, ledger *quota.Ledger, moderator moderation.Moderator, logs LogStore, opts Options) *Pipeline {
	return &Pipeline{
		resolver:     resolver,
		ledger:       ledger,
		moderator:    moderator,
		logs:         logs,
		events:       opts.Events,
		limiter:      opts.Limiter,
		defaultModel: opts.DefaultModel,
	}
}

// Process runs one request through the pipeline. Returned errors keep
// their component error kinds so the HTTP layer can map them to
// statuses: auth.ErrInvalidKey, ErrEmptyText, *quota.ExceededError,
// moderation.ErrProviderAuth, moderation.ErrMalformedResponse, and
// wrapped persistence errors.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Response, error) {
	// Authenticate
	tenant, key, err := p.resolver.Resolve(ctx, req.Secret)
	if err != nil {
		return nil, err
	}

	// Parse
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	modelKey := req.ModelKey
	if modelKey == "" {
		modelKey = p.defaultModel
	}

	now := time.Now()

	// Burst guard. The limiter itself failing is not a reason to refuse
	// service; it degrades to allowing the request.
	if p.limiter != nil {
		allowed, err := p.limiter.Allow(ctx, tenant.ID.String())
		if err != nil {
			log.Warn().Err(err).Str("tenant_id", tenant.ID.String()).Msg("Rate limiter unavailable, admitting request")
		} else if !allowed {
			return nil, ErrRateLimited
		}
	}

	// Quota check, before the provider call so a rejected request never
	// pays for one
	if err := p.ledger.Check(ctx, tenant, now); err != nil {
		return nil, err
	}

	// Moderate. On failure there is no normalized result to store, so
	// no log record is written; the failure surfaces directly.
	result, err := p.moderator.ModerateText(ctx, req.Text, modelKey)
	if err != nil {
		if errors.Is(err, moderation.ErrProviderAuth) {
			log.Error().Err(err).
				Str("tenant_id", tenant.ID.String()).
				Msg("Classification backend rejected our credentials; check the configured API token")
		}
		return nil, err
	}

	// Log. Writes run on a detached context so a caller disconnect
	// cannot tear a record mid-write. The write is synchronous and
	// fatal: the caller must never get a success response for an
	// un-logged decision.
	storeCtx := context.WithoutCancel(ctx)

	keyID := key.ID
	entry := &models.ModerationLog{
		TenantID:      tenant.ID,
		APIKeyID:      &keyID,
		CreatedAt:     now,
		Provider:      result.Provider,
		ProviderModel: result.ProviderModel,
		TextHash:      crypto.HashSHA256(req.Text),
		RawResponse:   result.Raw,
		Scores:        result.Scores,
		OverallScore:  result.OverallScore,
		Flagged:       result.Flagged,
		Threshold:     result.Threshold,
		Decision:      result.Decision,
	}

	if err := p.logs.CreateModerationLog(storeCtx, entry); err != nil {
		return nil, err
	}

	// Record usage. Best-effort: the decision is already made and
	// logged, and surfacing a counting failure would push callers into
	// double-charge retries.
	p.recordUsage(storeCtx, tenant.ID.String(), tenant, now)

	if p.events != nil {
		p.events.PublishModeration(tenant.ID.String(), entry)
	}

	return &Response{Log: entry, Result: result}, nil
}

// recordUsage increments the usage counter, retrying once before giving
// up. Failures are logged, never surfaced.
func (p *Pipeline) recordUsage(ctx context.Context, tenantID string, tenant *models.Tenant, now time.Time) {
	err := p.ledger.Record(ctx, tenant.ID, now)
	if err == nil {
		return
	}

	log.Warn().Err(err).Str("tenant_id", tenantID).Msg("Usage record failed, retrying")

	go func() {
		retryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		time.Sleep(time.Second)
		if err := p.ledger.Record(retryCtx, tenant.ID, now); err != nil {
			log.Error().Err(err).Str("tenant_id", tenantID).Msg("Usage record retry failed; counter is behind by one")
		}
	}()
}
