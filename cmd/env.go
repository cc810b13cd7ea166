package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/veracity/internal/model"
	"github.com/sells-group/veracity/internal/schema"
	"github.com/sells-group/veracity/internal/store"
	"github.com/sells-group/veracity/internal/telemetry"
	"github.com/sells-group/veracity/internal/validate"
)

// env bundles the wired-up validator and store for a command invocation.
type env struct {
	Registry  *schema.Registry
	Validator *validate.Validator
	Metrics   *telemetry.Metrics
	Store     store.Store
}

// initEnv builds the schema registry, validator, and (optionally) the
// verdict store from config. withStore is false for commands that never
// persist.
func initEnv(ctx context.Context, withStore bool) (*env, error) {
	registry := schema.NewRegistry()
	for _, path := range cfg.Validation.SchemaPaths {
		if err := registry.LoadFile(path); err != nil {
			return nil, err
		}
	}

	metrics := telemetry.NewMetrics()
	e := &env{
		Registry:  registry,
		Validator: validate.New(cfg.Validation, registry, nil, telemetry.ZapHook{}, metrics),
		Metrics:   metrics,
	}

	if withStore {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		e.Store = st
	}

	return e, nil
}

func (e *env) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("env: close store", zap.Error(err))
		}
	}
}

// readRecords loads a JSON file holding either a single record object or
// an array of records.
func readRecords(path string) ([]model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}

	var batch []model.Record
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch, nil
	}

	var single model.Record
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, eris.Wrapf(err, "parse %s: neither a record nor an array of records", path)
	}
	return []model.Record{single}, nil
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
