package main

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/veracity/internal/model"
	"github.com/sells-group/veracity/internal/validate"
)

var (
	batchSchema string
	batchLevel  string
	batchSave   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file.json> [file.json ...]",
	Short: "Validate many record files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, batchSave)
		if err != nil {
			return err
		}
		defer e.Close()

		limiter := rate.NewLimiter(rate.Limit(cfg.Batch.RatePerSecond), 1)

		var valid, invalid atomic.Int64
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrent)

		for _, path := range args {
			g.Go(func() error {
				if err := limiter.Wait(gCtx); err != nil {
					return err
				}

				records, err := readRecords(path)
				if err != nil {
					return err
				}

				req := validate.Request{Schema: batchSchema}
				if batchLevel != "" {
					level, err := model.ParseLevel(batchLevel)
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
				if res.IsValid {
					valid.Add(1)
				} else {
					invalid.Add(1)
				}

				if batchSave {
					if err := e.Store.SaveResult(gCtx, res); err != nil {
						zap.L().Error("batch: save result failed",
							zap.String("file", path),
							zap.Error(err),
						)
					}
				}

				zap.L().Info("batch: file validated",
					zap.String("file", path),
					zap.Float64("confidence", res.Confidence),
					zap.Bool("is_valid", res.IsValid),
				)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Printf("validated %d file(s): %d valid, %d invalid\n",
			len(args), valid.Load(), invalid.Load())
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchSchema, "schema", "", "provider schema name")
	batchCmd.Flags().StringVar(&batchLevel, "level", "", "explicit validation level")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "persist verdicts to the store")
	rootCmd.AddCommand(batchCmd)
}
