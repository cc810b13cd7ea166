package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/sells-group/veracity/internal/config"
	"github.com/sells-group/veracity/internal/feature"
	"github.com/sells-group/veracity/internal/model"
)

// Issue codes emitted by the pattern rules.
const (
	CodeRequiredMissing = "required_field_missing"
	CodeEnumViolation   = "enum_violation"
	CodeBadFormat       = "bad_format"
	CodeSuspiciousToken = "suspicious_token"
)

// Check runs the structural pattern rules against a record in fixed order:
// required fields, enums, format predicates, suspicious tokens. The result
// is deterministic for a given record and schema.
func (s *Schema) Check(rec model.Record, cfg config.RuleConfig) []model.ValidationIssue {
	var issues []model.ValidationIssue

	for _, key := range s.Required {
		if !rec.Has(key) {
			issues = append(issues, model.ValidationIssue{
				Code:     CodeRequiredMissing,
				Message:  fmt.Sprintf("required field %q is absent", key),
				Severity: model.SeverityHard,
				Penalty:  cfg.RequiredPenalty,
			})
		}
	}

	for _, key := range sortedEnumKeys(s.Enums) {
		val, ok := fieldString(rec, key)
		if !ok {
			continue
		}
		if !contains(s.Enums[key], val) {
			issues = append(issues, model.ValidationIssue{
				Code:     CodeEnumViolation,
				Message:  fmt.Sprintf("field %q value %q outside allowed set", key, val),
				Severity: model.SeverityHard,
				Penalty:  cfg.EnumPenalty,
			})
		}
	}

	for _, key := range sortedFormatKeys(s.compiled) {
		val, ok := fieldString(rec, key)
		if !ok {
			continue
		}
		if !s.compiled[key].MatchString(val) {
			issues = append(issues, model.ValidationIssue{
				Code:     CodeBadFormat,
				Message:  fmt.Sprintf("field %q value %q fails format check", key, val),
				Severity: model.SeverityHard,
				Penalty:  cfg.FormatPenalty,
			})
		}
	}

	issues = append(issues, suspiciousTokenIssues(rec, cfg)...)

	return issues
}

// suspiciousTokenIssues flags occurrences of mock/stub markers in text
// fields. Penalties are per occurrence with a configurable cap.
func suspiciousTokenIssues(rec model.Record, cfg config.RuleConfig) []model.ValidationIssue {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var issues []model.ValidationIssue
	total := 0.0
	for _, key := range keys {
		s, ok := rec.GetString(key)
		if !ok {
			continue
		}
		hits := feature.CountSuspicious(s)
		if hits == 0 {
			continue
		}
		penalty := math.Min(float64(hits)*cfg.TokenPenalty, cfg.TokenPenaltyCap-total)
		if penalty <= 0 {
			break
		}
		total += penalty
		issues = append(issues, model.ValidationIssue{
			Code:     CodeSuspiciousToken,
			Message:  fmt.Sprintf("field %q contains %d suspicious token(s)", key, hits),
			Severity: model.SeveritySoft,
			Penalty:  penalty,
		})
	}
	return issues
}

// fieldString renders a field value for enum and format matching. Whole
// numbers print without a decimal point so numeric IDs decoded as float64
// still match integer patterns.
func fieldString(rec model.Record, key string) (string, bool) {
	if !rec.Has(key) {
		return "", false
	}
	if s, ok := rec.GetString(key); ok {
		return s, true
	}
	if n, ok := rec.GetNumber(key); ok {
		if n == math.Trunc(n) {
			return strconv.FormatInt(int64(n), 10), true
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func sortedEnumKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFormatKeys(m map[string]*regexp.Regexp) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
