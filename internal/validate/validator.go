// Package validate is the entry point of the validation engine. The
// Validator decides whether externally sourced records are genuine
// observations or fabricated, adapting strictness to recent history while
// keeping every individual evaluation deterministic.
package validate

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/veracity/internal/behavior"
	"github.com/sells-group/veracity/internal/config"
	"github.com/sells-group/veracity/internal/crossval"
	"github.com/sells-group/veracity/internal/feature"
	"github.com/sells-group/veracity/internal/model"
	"github.com/sells-group/veracity/internal/schema"
	"github.com/sells-group/veracity/internal/score"
)

// Request is one evaluation call. Exactly one of Record or Batch may be
// set; Collections enables cross-validation when it holds two or more
// related collections. Level overrides adaptive selection for this call
// only. Schema names a registered provider schema; empty skips the
// structural pattern rules.
type Request struct {
	Record      model.Record
	Batch       []model.Record
	Collections map[string][]model.Record
	References  []crossval.Reference
	Context     model.RecordContext
	Schema      string
	Level       model.ValidationLevel
}

// Validator aggregates the sub-checks into one confidence verdict.
type Validator struct {
	cfg      config.ValidationConfig
	schemas  *schema.Registry
	history  *History
	analyzer *behavior.Analyzer
	hooks    hooks

	// Now supplies the evaluation clock. Tests pin it for determinism.
	Now func() time.Time
}

// New creates a Validator. A nil history gets a fresh window sized from
// the config, so independent validators never share adaptive state.
func New(cfg config.ValidationConfig, schemas *schema.Registry, history *History, hs ...Hook) *Validator {
	if schemas == nil {
		schemas = schema.NewRegistry()
	}
	if history == nil {
		history = NewHistory(cfg.Adapt.HistoryWindow)
	}
	return &Validator{
		cfg:      cfg,
		schemas:  schemas,
		history:  history,
		analyzer: behavior.New(cfg.Behavior),
		hooks:    hooks(hs),
		Now:      time.Now,
	}
}

// History exposes the adaptive window, mainly for reporting.
func (v *Validator) History() *History {
	return v.history
}

// Evaluate runs the applicable checks and merges their penalties into one
// ValidationResult. Data defects never produce an error; only programmer
// errors (unknown schema, invalid level, both Record and Batch set) do.
func (v *Validator) Evaluate(req Request) (*model.ValidationResult, error) {
	if req.Record != nil && req.Batch != nil {
		return nil, eris.New("validate: request sets both Record and Batch")
	}
	if req.Level != "" && !req.Level.Valid() {
		return nil, eris.Errorf("validate: invalid level %q", string(req.Level))
	}

	var sch *schema.Schema
	if req.Schema != "" {
		s, err := v.schemas.Get(req.Schema)
		if err != nil {
			return nil, err
		}
		sch = s
	}

	explicit := req.Level != ""
	level := req.Level
	if !explicit {
		level = v.adaptiveLevel()
	}

	v.hooks.beforeEvaluate(req.Schema, level)

	records := req.Batch
	if req.Record != nil {
		records = []model.Record{req.Record}
	}

	now := v.Now()
	var issues []model.ValidationIssue
	total := 0.0

	if len(records) > 0 {
		ruleIssues := v.runRules(records, sch)
		issues = append(issues, ruleIssues...)
		total += sumPenalties(ruleIssues)

		scoreIssues, scorePenalty := v.runScorer(records, sch, now)
		issues = append(issues, scoreIssues...)
		total += scorePenalty
	}

	if level != model.LevelBasic {
		behaviorIssues := v.runBehavior(records, req.Context, level)
		issues = append(issues, behaviorIssues...)
		total += sumPenalties(behaviorIssues)

		if len(req.Collections) >= 2 {
			v.hooks.beforeCheck(CheckCrossVal)
			cvIssues := crossval.Check(req.Collections, req.References, v.cfg.CrossVal)
			v.hooks.afterCheck(CheckCrossVal, cvIssues)
			issues = append(issues, cvIssues...)
			total += sumPenalties(cvIssues)
		}
	}

	confidence := 1 - math.Min(1, total)
	threshold := v.threshold(level)

	res := &model.ValidationResult{
		ID:          uuid.New().String(),
		Provider:    provider(req),
		Level:       level,
		Confidence:  confidence,
		IsValid:     confidence >= threshold,
		Issues:      issues,
		EvaluatedAt: now,
	}

	// An explicit level is a one-call override and must not steer future
	// adaptive selection.
	if !explicit {
		v.history.Append(res)
	}

	v.hooks.afterEvaluate(res)
	return res, nil
}

// runRules applies the provider's structural pattern rules to each record.
func (v *Validator) runRules(records []model.Record, sch *schema.Schema) []model.ValidationIssue {
	if sch == nil {
		return nil
	}
	v.hooks.beforeCheck(CheckRules)
	var issues []model.ValidationIssue
	for _, rec := range records {
		issues = append(issues, sch.Check(rec, v.cfg.Rules)...)
	}
	v.hooks.afterCheck(CheckRules, issues)
	return issues
}

// runScorer extracts features and applies the statistical scorer per
// record, returning the summed penalty.
func (v *Validator) runScorer(records []model.Record, sch *schema.Schema, now time.Time) ([]model.ValidationIssue, float64) {
	var required, nonNegative []string
	if sch != nil {
		required = sch.Required
		nonNegative = sch.NonNegative
	}

	v.hooks.beforeCheck(CheckFeatures)
	vectors := make([]model.FeatureVector, len(records))
	for i, rec := range records {
		vectors[i] = feature.Extract(rec, required, nonNegative, now, v.cfg.Feature.StaleHorizonDays)
	}
	v.hooks.afterCheck(CheckFeatures, nil)

	v.hooks.beforeCheck(CheckScorer)
	var issues []model.ValidationIssue
	total := 0.0
	for _, fv := range vectors {
		penalty, scoreIssues := score.Score(fv, v.cfg.Scorer)
		issues = append(issues, scoreIssues...)
		total += penalty
	}
	v.hooks.afterCheck(CheckScorer, issues)
	return issues, total
}

// runBehavior performs the batch consistency checks. Paranoid runs the
// context conformance check even for batches too small for the pairwise
// analyses.
func (v *Validator) runBehavior(records []model.Record, rctx model.RecordContext, level model.ValidationLevel) []model.ValidationIssue {
	v.hooks.beforeCheck(CheckBehavior)
	var issues []model.ValidationIssue
	if len(records) >= 2 {
		issues = v.analyzer.Analyze(records, rctx)
	} else if level == model.LevelParanoid && len(records) == 1 {
		issues = v.analyzer.CheckContext(records, rctx)
	}
	v.hooks.afterCheck(CheckBehavior, issues)
	return issues
}

// adaptiveLevel picks the strictness tier from the recent failure rate:
// mostly-failing history escalates to paranoid, a sustained quiet period
// relaxes to basic, everything else stays strict.
func (v *Validator) adaptiveLevel() model.ValidationLevel {
	rate, n := v.history.FailureRate()
	if n < v.cfg.Adapt.MinSamples {
		return model.LevelStrict
	}
	switch {
	case rate >= v.cfg.Adapt.EscalateFailRate:
		return model.LevelParanoid
	case rate <= v.cfg.Adapt.RelaxFailRate:
		return model.LevelBasic
	default:
		return model.LevelStrict
	}
}

func (v *Validator) threshold(level model.ValidationLevel) float64 {
	return v.cfg.Levels.Threshold(string(level))
}

func provider(req Request) string {
	if req.Schema != "" {
		return req.Schema
	}
	return req.Context.Provider
}

func sumPenalties(issues []model.ValidationIssue) float64 {
	total := 0.0
	for _, iss := range issues {
		total += iss.Penalty
	}
	return total
}
