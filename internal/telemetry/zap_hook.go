// Package telemetry provides ready-made instrumentation hooks for the
// validation engine. The engine itself stays backend-free; these hooks are
// wired in by the CLI and server wrappers.
package telemetry

import (
	"go.uber.org/zap"

	"github.com/sells-group/veracity/internal/model"
	"github.com/sells-group/veracity/internal/validate"
)

// ZapHook logs evaluation lifecycle events through the global zap logger.
type ZapHook struct{}

var _ validate.Hook = ZapHook{}

func (ZapHook) BeforeEvaluate(provider string, level model.ValidationLevel) {
	zap.L().Debug("validate: evaluation start",
		zap.String("provider", provider),
		zap.String("level", string(level)),
	)
}

func (ZapHook) AfterEvaluate(res *model.ValidationResult) {
	zap.L().Info("validate: evaluation complete",
		zap.String("id", res.ID),
		zap.String("provider", res.Provider),
		zap.String("level", string(res.Level)),
		zap.Float64("confidence", res.Confidence),
		zap.Bool("is_valid", res.IsValid),
		zap.Int("issues", len(res.Issues)),
	)
}

func (ZapHook) BeforeCheck(check string) {
	zap.L().Debug("validate: check start", zap.String("check", check))
}

func (ZapHook) AfterCheck(check string, issues []model.ValidationIssue) {
	zap.L().Debug("validate: check complete",
		zap.String("check", check),
		zap.Int("issues", len(issues)),
	)
}
