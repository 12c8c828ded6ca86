package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/textmod/textmod-server/internal/models"
)

func TestDecideSingleTier(t *testing.T) {
	tiers := DefaultPolicy(0.8)

	assert.Equal(t, models.DecisionAllow, Decide(0.0, tiers))
	assert.Equal(t, models.DecisionAllow, Decide(0.79, tiers))
	assert.Equal(t, models.DecisionFlag, Decide(0.8, tiers))
	assert.Equal(t, models.DecisionFlag, Decide(0.91, tiers))
	assert.Equal(t, models.DecisionFlag, Decide(1.0, tiers))
}

func TestDecideMultiTier(t *testing.T) {
	// A stricter deployment adds a block tier ahead of the flag tier.
	tiers := []Threshold{
		{Score: 0.95, Decision: models.DecisionBlock},
		{Score: 0.8, Decision: models.DecisionFlag},
	}

	assert.Equal(t, models.DecisionAllow, Decide(0.5, tiers))
	assert.Equal(t, models.DecisionFlag, Decide(0.85, tiers))
	assert.Equal(t, models.DecisionBlock, Decide(0.95, tiers))
	assert.Equal(t, models.DecisionBlock, Decide(0.99, tiers))
}

func TestDecideNoTiers(t *testing.T) {
	assert.Equal(t, models.DecisionAllow, Decide(1.0, nil))
}
