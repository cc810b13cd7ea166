// Package score maps a feature vector to a hallucination-likelihood
// penalty. The combination is a fixed linear one with hand-tuned weights,
// clamped rather than squashed so results stay reproducible and auditable.
package score

import (
	"fmt"
	"math"

	"github.com/sells-group/veracity/internal/config"
	"github.com/sells-group/veracity/internal/model"
)

// Issue codes emitted by the scorer. Statistical issues are soft except
// the future timestamp, which cannot occur in a genuine observation.
const (
	CodeLowDiversity    = "low_vocab_diversity"
	CodeFutureTime      = "future_timestamp"
	CodeStaleTime       = "stale_timestamp"
	CodeNegativeValue   = "negative_value"
	CodeDeepNesting     = "deep_nesting"
	CodeTextComposition = "text_composition"
)

// Score computes the statistical penalty for a feature vector and the
// contributing features as soft issues. The returned penalty is in
// [0, cfg.MaxPenalty].
//
// Continuous features contribute weight*value; threshold crossings add a
// flat penalty independent of magnitude, so one dominant feature cannot
// mask the others.
func Score(fv model.FeatureVector, cfg config.ScorerConfig) (float64, []model.ValidationIssue) {
	var issues []model.ValidationIssue
	penalty := 0.0

	// Continuous text composition features. Each term is hinged: it only
	// contributes for values past the benign range, so ordinary text in a
	// genuine record scores zero.
	linear := cfg.WeightLowDiversity*hinge(1-fv[model.FeatVocabDiversity], cfg.DiversityHinge) +
		cfg.WeightUppercase*hinge(fv[model.FeatUppercaseRatio], cfg.UppercaseHinge) +
		cfg.WeightDigit*hinge(fv[model.FeatDigitRatio], cfg.DigitHinge) +
		cfg.WeightSuspicious*fv[model.FeatSuspiciousHits]
	if linear > 0 {
		penalty += linear
		issues = append(issues, model.ValidationIssue{
			Code: CodeTextComposition,
			Message: fmt.Sprintf("text composition penalty %.3f (diversity %.2f, upper %.2f, digit %.2f)",
				linear, fv[model.FeatVocabDiversity], fv[model.FeatUppercaseRatio], fv[model.FeatDigitRatio]),
			Severity: model.SeveritySoft,
			Penalty:  linear,
		})
	}

	// Flat threshold penalties.
	if fv[model.FeatVocabDiversity] < cfg.DiversityFloor {
		penalty += cfg.FlatLowDiversity
		issues = append(issues, model.ValidationIssue{
			Code:     CodeLowDiversity,
			Message:  fmt.Sprintf("vocabulary diversity %.2f below floor %.2f", fv[model.FeatVocabDiversity], cfg.DiversityFloor),
			Severity: model.SeveritySoft,
			Penalty:  cfg.FlatLowDiversity,
		})
	}
	if fv[model.FeatFutureTimestamp] > 0 {
		penalty += cfg.FlatFutureTimestamp
		issues = append(issues, model.ValidationIssue{
			Code:     CodeFutureTime,
			Message:  "record carries a timestamp in the future",
			Severity: model.SeverityHard,
			Penalty:  cfg.FlatFutureTimestamp,
		})
	}
	if fv[model.FeatStaleTimestamp] > 0 {
		penalty += cfg.FlatStaleTimestamp
		issues = append(issues, model.ValidationIssue{
			Code:     CodeStaleTime,
			Message:  fmt.Sprintf("record age %.0f days exceeds plausibility horizon", fv[model.FeatAgeDays]),
			Severity: model.SeveritySoft,
			Penalty:  cfg.FlatStaleTimestamp,
		})
	}
	if fv[model.FeatNegativeValue] > 0 {
		penalty += cfg.FlatNegativeValue
		issues = append(issues, model.ValidationIssue{
			Code:     CodeNegativeValue,
			Message:  "negative value in a field that cannot be negative",
			Severity: model.SeveritySoft,
			Penalty:  cfg.FlatNegativeValue,
		})
	}
	if cfg.MaxNestingDepth > 0 && fv[model.FeatNestingDepth] > cfg.MaxNestingDepth {
		penalty += cfg.FlatDeepNesting
		issues = append(issues, model.ValidationIssue{
			Code:     CodeDeepNesting,
			Message:  fmt.Sprintf("nesting depth %.0f exceeds %.0f", fv[model.FeatNestingDepth], cfg.MaxNestingDepth),
			Severity: model.SeveritySoft,
			Penalty:  cfg.FlatDeepNesting,
		})
	}

	max := cfg.MaxPenalty
	if max <= 0 {
		max = 1.0
	}
	return math.Min(math.Max(penalty, 0), max), issues
}

// hinge returns how far v exceeds the threshold, or 0.
func hinge(v, threshold float64) float64 {
	if v <= threshold {
		return 0
	}
	return v - threshold
}
