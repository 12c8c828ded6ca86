package moderation

import (
	"strings"

	"github.com/textmod/textmod-server/internal/models"
)

// Category names in the normalized schema. The set is open-ended; these
// are the ones the built-in rules produce.
const (
	CategoryToxicity       = "toxicity"
	CategoryInsult         = "insult"
	CategoryIdentityAttack = "identity_attack"
	CategoryThreat         = "threat"
	CategoryObscene        = "obscene"
	CategorySexual         = "sexual"
)

// LabelScore is one raw label/score pair from a backend
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Rule classifies raw labels whose lower-cased form contains Match into
// Category. Rules are evaluated in order; the first match wins for a
// given label.
type Rule struct {
	Match    string
	Category string
}

// Classify maps raw label/score pairs onto normalized category scores.
// When several labels land in the same category the maximum score is
// kept. Labels matching no rule are dropped, except that a label
// containing "tox" populates the toxicity category when nothing else
// matched; binary classifiers emit a single toxic/non-toxic label that
// would otherwise be lost under a rule set without a toxicity rule.
func Classify(pairs []LabelScore, rules []Rule) models.ScoreMap {
	scores := make(models.ScoreMap)

	for _, pair := range pairs {
		label := strings.ToLower(pair.Label)
		for _, rule := range rules {
			if strings.Contains(label, rule.Match) {
				if pair.Score > scores[rule.Category] {
					scores[rule.Category] = pair.Score
				}
				break
			}
		}
	}

	if len(scores) == 0 {
		for _, pair := range pairs {
			if strings.Contains(strings.ToLower(pair.Label), "tox") {
				if pair.Score > scores[CategoryToxicity] {
					scores[CategoryToxicity] = pair.Score
				}
			}
		}
	}

	return scores
}

// OverallScore is the maximum across all populated categories, or 0
// when none is populated. The maximum, not an average: a single
// threshold crossing in any category drives the decision.
func OverallScore(scores models.ScoreMap) float64 {
	var max float64
	for _, score := range scores {
		if score > max {
			max = score
		}
	}
	return max
}
