package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/veracity/internal/model"
	"github.com/sells-group/veracity/internal/validate"
)

var (
	validateSchema   string
	validateLevel    string
	validateProvider string
	validateSince    string
	validateUntil    string
	validateExpected int
	validateSave     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <records.json>",
	Short: "Validate a record or batch from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, validateSave)
		if err != nil {
			return err
		}
		defer e.Close()

		records, err := readRecords(args[0])
		if err != nil {
			return err
		}

		rctx, err := buildContext(validateProvider, validateSince, validateUntil, validateExpected)
		if err != nil {
			return err
		}

		req := validate.Request{
			Context: rctx,
			Schema:  validateSchema,
		}
		if validateLevel != "" {
			level, err := model.ParseLevel(validateLevel)
			if err != nil {
				return err
			}
			req.Level = level
		}
		if len(records) == 1 {
			req.Record = records[0]
		} else {
			req.Batch = records
		}

		res, err := e.Validator.Evaluate(req)
		if err != nil {
			return err
		}

		if validateSave {
			if err := e.Store.SaveResult(ctx, res); err != nil {
				zap.L().Error("validate: save result failed", zap.Error(err))
			}
		}

		return printJSON(res)
	},
}

// buildContext assembles a RecordContext from command flags.
func buildContext(provider, since, until string, expected int) (model.RecordContext, error) {
	rctx := model.RecordContext{
		Provider:      provider,
		ExpectedCount: expected,
	}
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return rctx, err
		}
		rctx.WindowStart = t
	}
	if until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return rctx, err
		}
		rctx.WindowEnd = t
	}
	return rctx, nil
}

func init() {
	validateCmd.Flags().StringVar(&validateSchema, "schema", "", "provider schema name (github_actions, gitlab_ci, jenkins, ...)")
	validateCmd.Flags().StringVar(&validateLevel, "level", "", "explicit validation level (basic, strict, paranoid)")
	validateCmd.Flags().StringVar(&validateProvider, "provider", "", "provider the records were requested from")
	validateCmd.Flags().StringVar(&validateSince, "since", "", "window start (RFC 3339)")
	validateCmd.Flags().StringVar(&validateUntil, "until", "", "window end (RFC 3339)")
	validateCmd.Flags().IntVar(&validateExpected, "expected", 0, "expected record count")
	validateCmd.Flags().BoolVar(&validateSave, "save", false, "persist the verdict to the store")
	rootCmd.AddCommand(validateCmd)
}
