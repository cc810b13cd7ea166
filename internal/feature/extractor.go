// Package feature derives the fixed numeric feature set the statistical
// scorer consumes from a single record. Extraction is pure: malformed or
// missing fields produce neutral defaults, never an error.
package feature

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/veracity/internal/model"
)

// SuspiciousTokens are markers of mocked, stubbed, or generated data.
// Matching is case-insensitive over Unicode-folded text.
var SuspiciousTokens = []string{
	"lorem ipsum", "placeholder", "dummy", "fake", "mock", "stub",
	"todo", "fixme", "tbd", "sample", "synthetic", "random", "generated",
}

// Fold normalizes text for matching: NFKC normalization plus Unicode case
// folding.
func Fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

// CountSuspicious returns the number of suspicious token occurrences in s.
func CountSuspicious(s string) int {
	folded := Fold(s)
	n := 0
	for _, tok := range SuspiciousTokens {
		n += strings.Count(folded, tok)
	}
	return n
}

// Extract derives the feature vector from one record at the given
// evaluation time. required and nonNegative come from the provider schema;
// either may be nil. horizonDays bounds plausible record age.
func Extract(rec model.Record, required, nonNegative []string, now time.Time, horizonDays int) model.FeatureVector {
	fv := model.NewFeatureVector()
	if len(rec) == 0 {
		return fv
	}

	extractText(fv, rec)
	extractTemporal(fv, rec, now, horizonDays)
	extractStructural(fv, rec, required)
	extractNumeric(fv, rec, nonNegative)

	return fv
}

func extractText(fv model.FeatureVector, rec model.Record) {
	var texts []string
	for _, key := range sortedKeys(rec) {
		if s, ok := rec.GetString(key); ok {
			// Skip values that are really timestamps or numeric
			// identifiers; neither carries a text signal.
			if _, isTime := rec.GetTime(key); isTime {
				continue
			}
			if allDigits(s) {
				continue
			}
			texts = append(texts, s)
		}
	}
	if len(texts) == 0 {
		return
	}

	joined := strings.Join(texts, " ")
	tokens := strings.Fields(Fold(joined))
	if len(tokens) == 0 {
		fv[model.FeatVocabDiversity] = 0
	} else {
		unique := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			unique[t] = struct{}{}
		}
		fv[model.FeatVocabDiversity] = float64(len(unique)) / float64(len(tokens))
	}

	var letters, uppers, digits, runes int
	for _, r := range joined {
		runes++
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				uppers++
			}
		}
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if letters > 0 {
		fv[model.FeatUppercaseRatio] = float64(uppers) / float64(letters)
	}
	if runes > 0 {
		fv[model.FeatDigitRatio] = float64(digits) / float64(runes)
	}

	fv[model.FeatSuspiciousHits] = float64(CountSuspicious(joined))
}

func extractTemporal(fv model.FeatureVector, rec model.Record, now time.Time, horizonDays int) {
	if horizonDays <= 0 {
		horizonDays = 365
	}

	maxAge := math.Inf(-1)
	found := false
	for _, key := range sortedKeys(rec) {
		ts, ok := rec.GetTime(key)
		if !ok {
			continue
		}
		found = true
		ageDays := now.Sub(ts).Hours() / 24
		if ageDays < 0 {
			fv[model.FeatFutureTimestamp] = 1
		}
		if ageDays > float64(horizonDays) {
			fv[model.FeatStaleTimestamp] = 1
		}
		if ageDays > maxAge {
			maxAge = ageDays
		}
	}
	if found {
		fv[model.FeatAgeDays] = maxAge
	}
}

func extractStructural(fv model.FeatureVector, rec model.Record, required []string) {
	missing := 0
	for _, key := range required {
		if !rec.Has(key) {
			missing++
		}
	}
	fv[model.FeatMissingRequired] = float64(missing)
	fv[model.FeatNestingDepth] = float64(depth(map[string]any(rec)))
}

// depth returns the nesting depth of a value: scalars are 0, a flat
// mapping is 1.
func depth(v any) int {
	switch val := v.(type) {
	case map[string]any:
		max := 0
		for _, child := range val {
			if d := depth(child); d > max {
				max = d
			}
		}
		return 1 + max
	case model.Record:
		return depth(map[string]any(val))
	case []any:
		max := 0
		for _, child := range val {
			if d := depth(child); d > max {
				max = d
			}
		}
		return max
	}
	return 0
}

func extractNumeric(fv model.FeatureVector, rec model.Record, nonNegative []string) {
	maxAbs := 0.0
	for key := range rec {
		if n, ok := rec.GetNumber(key); ok {
			if a := math.Abs(n); a > maxAbs {
				maxAbs = a
			}
		}
	}
	if maxAbs > 0 {
		// Log scale keeps huge counters from dominating the linear scorer.
		fv[model.FeatMagnitude] = math.Log10(1 + maxAbs)
	}

	for _, key := range nonNegative {
		if n, ok := rec.GetNumber(key); ok && n < 0 {
			fv[model.FeatNegativeValue] = 1
			break
		}
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func sortedKeys(rec model.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
