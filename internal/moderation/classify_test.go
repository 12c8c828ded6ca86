package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/textmod/textmod-server/internal/models"
)

func defaultRules() []Rule {
	return []Rule{
		{Match: "identity", Category: CategoryIdentityAttack},
		{Match: "id_hate", Category: CategoryIdentityAttack},
		{Match: "insult", Category: CategoryInsult},
		{Match: "threat", Category: CategoryThreat},
		{Match: "obscene", Category: CategoryObscene},
		{Match: "curse", Category: CategoryObscene},
		{Match: "sexual", Category: CategorySexual},
		{Match: "tox", Category: CategoryToxicity},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		pairs    []LabelScore
		expected models.ScoreMap
	}{
		{
			name: "standard toxic-bert labels",
			pairs: []LabelScore{
				{Label: "toxic", Score: 0.91},
				{Label: "insult", Score: 0.88},
				{Label: "identity_hate", Score: 0.12},
				{Label: "threat", Score: 0.05},
			},
			expected: models.ScoreMap{
				CategoryToxicity:       0.91,
				CategoryInsult:         0.88,
				CategoryIdentityAttack: 0.12,
				CategoryThreat:         0.05,
			},
		},
		{
			name: "labels are matched case-insensitively",
			pairs: []LabelScore{
				{Label: "TOXIC", Score: 0.7},
				{Label: "Sexual_Explicit", Score: 0.4},
			},
			expected: models.ScoreMap{
				CategoryToxicity: 0.7,
				CategorySexual:   0.4,
			},
		},
		{
			name: "multiple labels in one category keep the maximum",
			pairs: []LabelScore{
				{Label: "toxicity", Score: 0.3},
				{Label: "severe_toxicity", Score: 0.9},
				{Label: "obscene", Score: 0.2},
				{Label: "curse_words", Score: 0.6},
			},
			expected: models.ScoreMap{
				CategoryToxicity: 0.9,
				CategoryObscene:  0.6,
			},
		},
		{
			name: "lower score never overwrites a higher one",
			pairs: []LabelScore{
				{Label: "severe_toxicity", Score: 0.9},
				{Label: "toxicity", Score: 0.3},
			},
			expected: models.ScoreMap{
				CategoryToxicity: 0.9,
			},
		},
		{
			name: "unmatched labels are dropped",
			pairs: []LabelScore{
				{Label: "spam", Score: 0.99},
				{Label: "insult", Score: 0.5},
			},
			expected: models.ScoreMap{
				CategoryInsult: 0.5,
			},
		},
		{
			name:     "no pairs yields no categories",
			pairs:    nil,
			expected: models.ScoreMap{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.pairs, defaultRules()))
		})
	}
}

func TestClassifyBinaryFallback(t *testing.T) {
	// A rule set without a toxicity rule should still pick up binary
	// toxic/non-toxic classifiers through the fallback.
	rules := []Rule{
		{Match: "insult", Category: CategoryInsult},
	}

	pairs := []LabelScore{
		{Label: "toxic", Score: 0.85},
		{Label: "non-toxic", Score: 0.15},
	}

	scores := Classify(pairs, rules)
	assert.Equal(t, models.ScoreMap{CategoryToxicity: 0.85}, scores)
}

func TestClassifyFallbackNotUsedWhenCategoryMatched(t *testing.T) {
	rules := []Rule{
		{Match: "insult", Category: CategoryInsult},
	}

	pairs := []LabelScore{
		{Label: "insult", Score: 0.4},
		{Label: "toxic", Score: 0.9},
	}

	// The toxic label matches no rule and the fallback only applies
	// when nothing matched at all.
	scores := Classify(pairs, rules)
	assert.Equal(t, models.ScoreMap{CategoryInsult: 0.4}, scores)
}

func TestOverallScore(t *testing.T) {
	tests := []struct {
		name     string
		scores   models.ScoreMap
		expected float64
	}{
		{
			name:     "maximum across categories, not an average",
			scores:   models.ScoreMap{"toxicity": 0.91, "insult": 0.88, "threat": 0.05},
			expected: 0.91,
		},
		{
			name:     "single category",
			scores:   models.ScoreMap{"sexual": 0.42},
			expected: 0.42,
		},
		{
			name:     "zero when no category is populated",
			scores:   models.ScoreMap{},
			expected: 0,
		},
		{
			name:     "zero for nil map",
			scores:   nil,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OverallScore(tt.scores))
		})
	}
}

func TestIsAuthErrorMessage(t *testing.T) {
	authMessages := []string{
		"401 Unauthorized",
		"request FORBIDDEN by backend",
		"Invalid API key supplied",
		"invalid api token",
		"authentication failed for user",
		"Invalid Credentials",
		"error: invalid token",
	}
	for _, msg := range authMessages {
		assert.True(t, IsAuthErrorMessage(msg), "expected auth error: %q", msg)
	}

	otherMessages := []string{
		"connection refused",
		"model is currently loading",
		"internal server error",
		"rate limit exceeded",
	}
	for _, msg := range otherMessages {
		assert.False(t, IsAuthErrorMessage(msg), "expected non-auth error: %q", msg)
	}
}
