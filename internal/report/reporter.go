// Package report aggregates stored validation verdicts into summary
// statistics for an external reporting layer to render.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/veracity/internal/store"
)

// IssueCount pairs an issue code with its occurrence count.
type IssueCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Summary holds aggregate verdict statistics for one provider and time
// range.
type Summary struct {
	Provider      string         `json:"provider,omitempty"`
	From          time.Time      `json:"from"`
	To            time.Time      `json:"to"`
	Total         int            `json:"total"`
	Valid         int            `json:"valid"`
	Invalid       int            `json:"invalid"`
	AvgConfidence float64        `json:"avg_confidence"`
	ByLevel       map[string]int `json:"by_level,omitempty"`
	TopIssues     []IssueCount   `json:"top_issues,omitempty"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

// maxTopIssues bounds the most-frequent-issue list.
const maxTopIssues = 10

// Reporter computes summaries over a verdict store.
type Reporter struct {
	store store.Store
}

// NewReporter creates a Reporter.
func NewReporter(st store.Store) *Reporter {
	return &Reporter{store: st}
}

// Summarize aggregates verdict counts, average confidence, and the most
// frequent issue codes for the provider within [from, to]. An empty
// provider aggregates across all providers.
func (r *Reporter) Summarize(ctx context.Context, provider string, from, to time.Time) (*Summary, error) {
	results, err := r.store.ListResults(ctx, store.Filter{
		Provider: provider,
		From:     from,
		To:       to,
		Limit:    10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "report: list results")
	}

	summary := &Summary{
		Provider:    provider,
		From:        from,
		To:          to,
		Total:       len(results),
		ByLevel:     make(map[string]int),
		GeneratedAt: time.Now().UTC(),
	}

	issueCounts := make(map[string]int)
	totalConfidence := 0.0
	for _, res := range results {
		if res.IsValid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
		summary.ByLevel[string(res.Level)]++
		totalConfidence += res.Confidence
		for _, iss := range res.Issues {
			issueCounts[iss.Code]++
		}
	}
	if summary.Total > 0 {
		summary.AvgConfidence = totalConfidence / float64(summary.Total)
	}
	summary.TopIssues = topIssues(issueCounts, maxTopIssues)

	return summary, nil
}

func topIssues(counts map[string]int, limit int) []IssueCount {
	out := make([]IssueCount, 0, len(counts))
	for code, count := range counts {
		out = append(out, IssueCount{Code: code, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})
	if len(out) > limit {
		out = out[:limit]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
