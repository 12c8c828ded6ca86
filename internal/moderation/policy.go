package moderation

import (
	"github.com/textmod/textmod-server/internal/models"
)

// Threshold pairs a minimum score with the decision it triggers
type Threshold struct {
	Score    float64
	Decision models.Decision
}

// DefaultPolicy returns the single-tier policy used by the standard
// moderation path: scores at or above the threshold flag, everything
// else is allowed. Deployments wanting a "block" tier add a stricter
// tier ahead of the flag one.
func DefaultPolicy(threshold float64) []Threshold {
	return []Threshold{
		{Score: threshold, Decision: models.DecisionFlag},
	}
}

// Decide evaluates tiers from most to least severe and returns the
// decision of the first threshold the score meets or exceeds, falling
// back to allow.
func Decide(overall float64, tiers []Threshold) models.Decision {
	for _, tier := range tiers {
		if overall >= tier.Score {
			return tier.Decision
		}
	}
	return models.DecisionAllow
}
