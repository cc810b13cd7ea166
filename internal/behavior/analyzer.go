// Package behavior runs batch-level consistency checks across sibling
// records: near-duplicate detection, distributional plausibility, and
// context conformance. Single records carry no batch signal, so batches
// below two records are a no-op.
package behavior

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/sells-group/veracity/internal/config"
	"github.com/sells-group/veracity/internal/feature"
	"github.com/sells-group/veracity/internal/model"
)

// Issue codes emitted by the analyzer.
const (
	CodeNearDuplicate    = "near_duplicate"
	CodeTooUniform       = "distribution_too_uniform"
	CodeTooSkewed        = "distribution_too_skewed"
	CodeWindowMismatch   = "context_window_mismatch"
	CodeProviderMismatch = "context_provider_mismatch"
	CodeCountMismatch    = "context_count_mismatch"
)

// Analyzer checks a batch of sibling records for behavioral anomalies.
type Analyzer struct {
	cfg config.BehaviorConfig
}

// New creates an Analyzer with the given tuning.
func New(cfg config.BehaviorConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze runs all batch checks. Batches of fewer than two records return
// no issues: there is nothing to compare.
func (a *Analyzer) Analyze(batch []model.Record, rctx model.RecordContext) []model.ValidationIssue {
	if len(batch) < 2 {
		return nil
	}

	var issues []model.ValidationIssue
	issues = append(issues, a.duplicateIssues(batch)...)
	issues = append(issues, a.distributionIssues(batch)...)
	issues = append(issues, a.CheckContext(batch, rctx)...)
	return issues
}

// duplicateIssues flags records whose normalized text is identical or
// within the edit-distance threshold of an earlier record. Every record
// beyond the first in a duplicate cluster is flagged, so N identical
// records yield N-1 issues. Pairwise comparison is O(n²); the configured
// cap bounds the work for oversized batches.
func (a *Analyzer) duplicateIssues(batch []model.Record) []model.ValidationIssue {
	fps := make([]string, len(batch))
	for i, rec := range batch {
		fps[i] = fingerprint(rec)
	}

	var issues []model.ValidationIssue
	total := 0.0
	pairs := 0
	// clusterOf[i] = index of the first record i duplicates, or -1.
	clusterOf := make([]int, len(batch))
	clusterSize := make(map[int]int)
	for i := range clusterOf {
		clusterOf[i] = -1
	}

	for i := 1; i < len(batch); i++ {
		if a.cfg.MaxPairwise > 0 && pairs >= a.cfg.MaxPairwise {
			break
		}
		for j := 0; j < i; j++ {
			if a.cfg.MaxPairwise > 0 && pairs >= a.cfg.MaxPairwise {
				break
			}
			pairs++
			if fps[i] == "" && fps[j] == "" {
				continue
			}
			if fps[i] == fps[j] || a.nearMatch(fps[i], fps[j]) {
				root := j
				if clusterOf[j] >= 0 {
					root = clusterOf[j]
				}
				clusterOf[i] = root
				clusterSize[root]++
				break
			}
		}
	}

	for i := 1; i < len(batch); i++ {
		root := clusterOf[i]
		if root < 0 {
			continue
		}
		// Larger clusters are stronger fabrication evidence.
		penalty := a.cfg.DuplicatePenalty * (1 + 0.5*float64(clusterSize[root]-1))
		penalty = math.Min(penalty, a.cfg.DuplicatePenaltyCap-total)
		if penalty <= 0 {
			penalty = 0
		}
		total += penalty
		issues = append(issues, model.ValidationIssue{
			Code:     CodeNearDuplicate,
			Message:  fmt.Sprintf("record %d duplicates record %d (cluster size %d)", i, root, clusterSize[root]+1),
			Severity: model.SeveritySoft,
			Penalty:  penalty,
		})
	}
	return issues
}

func (a *Analyzer) nearMatch(x, y string) bool {
	if a.cfg.MaxEditDistance <= 0 {
		return false
	}
	// Length gap alone can rule the pair out without computing distance.
	if abs(len(x)-len(y)) > a.cfg.MaxEditDistance {
		return false
	}
	d := levenshtein.Distance(x, y, nil)
	return d <= a.cfg.MaxEditDistance
}

// distributionIssues checks the value distribution of each categorical
// field across the batch. Genuine operational data rarely sits at either
// extreme: near-maximum entropy ("too uniform") and near-total skew are
// both suspicious.
func (a *Analyzer) distributionIssues(batch []model.Record) []model.ValidationIssue {
	// Tiny batches carry no distribution signal; two records sharing a
	// status is not skew.
	if len(batch) < a.cfg.MinDistribution {
		return nil
	}

	counts := map[string]map[string]int{}
	for _, rec := range batch {
		for key, val := range rec {
			s, ok := val.(string)
			if !ok || len(s) > 64 {
				continue
			}
			if _, isTime := rec.GetTime(key); isTime {
				continue
			}
			if counts[key] == nil {
				counts[key] = map[string]int{}
			}
			counts[key][s]++
		}
	}

	fields := make([]string, 0, len(counts))
	for f := range counts {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var issues []model.ValidationIssue
	for _, field := range fields {
		dist := counts[field]
		n := 0
		maxCount := 0
		for _, c := range dist {
			n += c
			if c > maxCount {
				maxCount = c
			}
		}
		// Only fields present in the whole batch carry a distribution
		// signal; fields where every value is distinct are identifiers,
		// not categories.
		if n < len(batch) {
			continue
		}

		share := float64(maxCount) / float64(n)
		if share >= a.cfg.SkewShare {
			issues = append(issues, model.ValidationIssue{
				Code:     CodeTooSkewed,
				Message:  fmt.Sprintf("field %q dominated by one value (%.0f%% of batch)", field, share*100),
				Severity: model.SeveritySoft,
				Penalty:  a.cfg.DistributionPenalty,
			})
			continue
		}

		if len(dist) < n && normEntropy(dist, n) >= a.cfg.UniformEntropy {
			issues = append(issues, model.ValidationIssue{
				Code:     CodeTooUniform,
				Message:  fmt.Sprintf("field %q values implausibly evenly distributed", field),
				Severity: model.SeveritySoft,
				Penalty:  a.cfg.DistributionPenalty,
			})
		}
	}
	return issues
}

// CheckContext verifies each record against the constraints of the request
// that produced it. Unlike the batch checks it applies to any batch size;
// the paranoid level runs it even for single records.
func (a *Analyzer) CheckContext(batch []model.Record, rctx model.RecordContext) []model.ValidationIssue {
	var issues []model.ValidationIssue

	for i, rec := range batch {
		if rctx.HasWindow() {
			for _, key := range timestampKeys(rec) {
				ts, _ := rec.GetTime(key)
				if ts.Before(rctx.WindowStart) || ts.After(rctx.WindowEnd) {
					issues = append(issues, model.ValidationIssue{
						Code:     CodeWindowMismatch,
						Message:  fmt.Sprintf("record %d field %q (%s) outside requested window", i, key, ts.Format("2006-01-02T15:04:05Z07:00")),
						Severity: model.SeverityHard,
						Penalty:  a.cfg.ContextPenalty,
					})
					break
				}
			}
		}

		if rctx.Provider != "" {
			if p, ok := rec.GetString("provider"); ok && !strings.EqualFold(p, rctx.Provider) {
				issues = append(issues, model.ValidationIssue{
					Code:     CodeProviderMismatch,
					Message:  fmt.Sprintf("record %d reports provider %q, context requested %q", i, p, rctx.Provider),
					Severity: model.SeverityHard,
					Penalty:  a.cfg.ContextPenalty,
				})
			}
		}
	}

	if rctx.ExpectedCount > 0 && a.cfg.CountTolerance > 0 {
		deviation := math.Abs(float64(len(batch)-rctx.ExpectedCount)) / float64(rctx.ExpectedCount)
		if deviation > a.cfg.CountTolerance {
			issues = append(issues, model.ValidationIssue{
				Code:     CodeCountMismatch,
				Message:  fmt.Sprintf("batch size %d deviates from expected %d", len(batch), rctx.ExpectedCount),
				Severity: model.SeveritySoft,
				Penalty:  a.cfg.CountPenalty,
			})
		}
	}

	return issues
}

// fingerprint concatenates a record's normalized text fields in key order.
func fingerprint(rec model.Record) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		s, ok := rec.GetString(key)
		if !ok {
			continue
		}
		if _, isTime := rec.GetTime(key); isTime {
			continue
		}
		sb.WriteString(feature.Fold(s))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func timestampKeys(rec model.Record) []string {
	var keys []string
	for k := range rec {
		if _, ok := rec.GetTime(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// normEntropy is the Shannon entropy of the distribution normalized by the
// maximum for its support size, in [0,1].
func normEntropy(dist map[string]int, n int) float64 {
	if len(dist) < 2 {
		return 0
	}
	h := 0.0
	for _, c := range dist {
		p := float64(c) / float64(n)
		h -= p * math.Log2(p)
	}
	return h / math.Log2(float64(len(dist)))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
