package telemetry

import (
	"sync"
	"time"

	"github.com/sells-group/veracity/internal/model"
	"github.com/sells-group/veracity/internal/validate"
)

// MetricsSnapshot holds a point-in-time view of engine activity since the
// collector was created.
type MetricsSnapshot struct {
	Evaluations   int            `json:"evaluations"`
	Valid         int            `json:"valid"`
	Invalid       int            `json:"invalid"`
	FailRate      float64        `json:"fail_rate"`
	AvgConfidence float64        `json:"avg_confidence"`
	ByLevel       map[string]int `json:"by_level,omitempty"`
	IssuesByCode  map[string]int `json:"issues_by_code,omitempty"`
	ChecksRun     map[string]int `json:"checks_run,omitempty"`
	CollectedAt   time.Time      `json:"collected_at"`
}

// Metrics is a validate.Hook accumulating in-process counters. It is safe
// for concurrent use.
type Metrics struct {
	mu              sync.Mutex
	evaluations     int
	valid           int
	totalConfidence float64
	byLevel         map[string]int
	issuesByCode    map[string]int
	checksRun       map[string]int
}

var _ validate.Hook = (*Metrics)(nil)

// NewMetrics creates an empty metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		byLevel:      make(map[string]int),
		issuesByCode: make(map[string]int),
		checksRun:    make(map[string]int),
	}
}

func (m *Metrics) BeforeEvaluate(provider string, level model.ValidationLevel) {}

func (m *Metrics) AfterEvaluate(res *model.ValidationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evaluations++
	if res.IsValid {
		m.valid++
	}
	m.totalConfidence += res.Confidence
	m.byLevel[string(res.Level)]++
	for _, iss := range res.Issues {
		m.issuesByCode[iss.Code]++
	}
}

func (m *Metrics) BeforeCheck(check string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checksRun[check]++
}

func (m *Metrics) AfterCheck(check string, issues []model.ValidationIssue) {}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := &MetricsSnapshot{
		Evaluations:  m.evaluations,
		Valid:        m.valid,
		Invalid:      m.evaluations - m.valid,
		ByLevel:      copyCounts(m.byLevel),
		IssuesByCode: copyCounts(m.issuesByCode),
		ChecksRun:    copyCounts(m.checksRun),
		CollectedAt:  time.Now().UTC(),
	}
	if m.evaluations > 0 {
		snap.FailRate = float64(snap.Invalid) / float64(m.evaluations)
		snap.AvgConfidence = m.totalConfidence / float64(m.evaluations)
	}
	return snap
}

func copyCounts(src map[string]int) map[string]int {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
