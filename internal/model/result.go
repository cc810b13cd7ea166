package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// Severity classifies how strongly an issue counts against a record.
type Severity string

const (
	// SeveritySoft marks issues that lower confidence without being
	// conclusive on their own (suspicious tokens, odd distributions).
	SeveritySoft Severity = "soft"
	// SeverityHard marks issues that are strong fabrication evidence
	// (missing required fields, orphaned references, out-of-window data).
	SeverityHard Severity = "hard"
)

// ValidationIssue is a single defect found during evaluation.
type ValidationIssue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Penalty  float64  `json:"penalty"`
}

// ValidationLevel is a strictness tier controlling the confidence threshold
// and which checks are mandatory.
type ValidationLevel string

const (
	LevelBasic    ValidationLevel = "basic"
	LevelStrict   ValidationLevel = "strict"
	LevelParanoid ValidationLevel = "paranoid"
)

// ParseLevel converts a string into a ValidationLevel. An unknown value is
// a programmer error, not a data defect.
func ParseLevel(s string) (ValidationLevel, error) {
	switch ValidationLevel(s) {
	case LevelBasic, LevelStrict, LevelParanoid:
		return ValidationLevel(s), nil
	}
	return "", eris.Errorf("model: invalid validation level %q", s)
}

// Valid reports whether the level is one of the three known tiers.
func (l ValidationLevel) Valid() bool {
	switch l {
	case LevelBasic, LevelStrict, LevelParanoid:
		return true
	}
	return false
}

// ValidationResult is the verdict for one evaluation call.
//
// Confidence is always in [0,1] and IsValid is a pure function of
// Confidence and the active level's threshold; neither is ever set
// independently of the other.
type ValidationResult struct {
	ID          string            `json:"id"`
	Provider    string            `json:"provider,omitempty"`
	Level       ValidationLevel   `json:"level"`
	Confidence  float64           `json:"confidence"`
	IsValid     bool              `json:"is_valid"`
	Issues      []ValidationIssue `json:"issues,omitempty"`
	EvaluatedAt time.Time         `json:"evaluated_at"`
}

// TotalPenalty sums the penalties of all issues.
func (r *ValidationResult) TotalPenalty() float64 {
	total := 0.0
	for _, iss := range r.Issues {
		total += iss.Penalty
	}
	return total
}

// HardIssueCount returns the number of hard issues.
func (r *ValidationResult) HardIssueCount() int {
	n := 0
	for _, iss := range r.Issues {
		if iss.Severity == SeverityHard {
			n++
		}
	}
	return n
}
