package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/veracity/internal/config"
	"github.com/sells-group/veracity/internal/model"
)

// Filter specifies criteria for listing validation results.
type Filter struct {
	Provider    string    `json:"provider,omitempty"`
	From        time.Time `json:"from,omitzero"`
	To          time.Time `json:"to,omitzero"`
	OnlyInvalid bool      `json:"only_invalid,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Offset      int       `json:"offset,omitempty"`
}

// Store persists validation verdicts for the reporting layer. The engine
// itself never touches it; the CLI and server wrappers save results after
// each evaluation.
type Store interface {
	SaveResult(ctx context.Context, res *model.ValidationResult) error
	GetResult(ctx context.Context, id string) (*model.ValidationResult, error)
	ListResults(ctx context.Context, filter Filter) ([]model.ValidationResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store from config, selecting the driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	}
	return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
}
