package validate

import (
	"log/slog"
	"strings"

	"github.com/jmribera/textaudit/internal/model"
)

// Word limits enforced on cleaned findings. Enforced post-hoc by
// truncation, never by rejecting the finding.
const (
	MaxFragmentWords       = 10
	MaxRecommendationWords = 60

	truncationMarker = "..."
)

// Policy decides what happens to a finding whose category is outside the
// taxonomy. Chosen once per deployment.
type Policy string

const (
	// PolicyDrop discards the finding.
	PolicyDrop Policy = "drop"
	// PolicyCoerce relabels the finding with the fallback category.
	PolicyCoerce Policy = "coerce"
)

// ParsePolicy maps a configuration string to a Policy, defaulting to drop.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), string(PolicyCoerce)) {
		return PolicyCoerce
	}
	return PolicyDrop
}

// Cleaner validates and normalizes raw findings against the taxonomy.
type Cleaner struct {
	policy   Policy
	fallback model.Category
}

// NewCleaner creates a cleaner with the given invalid-category policy.
// An invalid fallback category is replaced with semantics.
func NewCleaner(policy Policy, fallback model.Category) *Cleaner {
	if policy != PolicyCoerce {
		policy = PolicyDrop
	}
	if !fallback.Valid() {
		fallback = model.CategorySemantics
	}
	return &Cleaner{policy: policy, fallback: fallback}
}

// Clean enforces category membership, priority validity, and field word
// limits. It never fails; the result may be shorter than the input.
func (c *Cleaner) Clean(raw []model.Finding) []model.Finding {
	cleaned := make([]model.Finding, 0, len(raw))

	for _, f := range raw {
		if !f.Category.Valid() {
			if c.policy == PolicyDrop {
				slog.Warn("dropping finding with invalid category", "category", string(f.Category))
				continue
			}
			slog.Warn("coercing invalid category", "category", string(f.Category), "fallback", string(c.fallback))
			f.Category = c.fallback
		}

		f.OriginalFragment = TruncateWords(f.OriginalFragment, MaxFragmentWords)
		f.Recommendation = TruncateWords(f.Recommendation, MaxRecommendationWords)

		if !f.Priority.Valid() {
			f.Priority = model.PriorityMedium
		}

		cleaned = append(cleaned, f)
	}

	return cleaned
}

// TruncateWords caps s at max words, appending a truncation marker when
// anything was cut. Strings at or under the limit are returned unmodified.
func TruncateWords(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return s
	}
	return strings.Join(words[:max], " ") + truncationMarker
}
