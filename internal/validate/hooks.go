package validate

import "github.com/sells-group/veracity/internal/model"

// Hook receives instrumentation callbacks around each evaluation and each
// sub-check. The engine depends on no telemetry backend; callers wrap
// these boundaries with whatever collector they run.
type Hook interface {
	BeforeEvaluate(provider string, level model.ValidationLevel)
	AfterEvaluate(res *model.ValidationResult)
	BeforeCheck(check string)
	AfterCheck(check string, issues []model.ValidationIssue)
}

// Sub-check names passed to BeforeCheck/AfterCheck.
const (
	CheckRules    = "rules"
	CheckFeatures = "features"
	CheckScorer   = "scorer"
	CheckBehavior = "behavior"
	CheckCrossVal = "crossval"
)

type hooks []Hook

func (hs hooks) beforeEvaluate(provider string, level model.ValidationLevel) {
	for _, h := range hs {
		h.BeforeEvaluate(provider, level)
	}
}

func (hs hooks) afterEvaluate(res *model.ValidationResult) {
	for _, h := range hs {
		h.AfterEvaluate(res)
	}
}

func (hs hooks) beforeCheck(check string) {
	for _, h := range hs {
		h.BeforeCheck(check)
	}
}

func (hs hooks) afterCheck(check string, issues []model.ValidationIssue) {
	for _, h := range hs {
		h.AfterCheck(check, issues)
	}
}
