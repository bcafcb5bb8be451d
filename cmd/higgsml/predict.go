package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/higgsml/dataset"
	"github.com/YuminosukeSato/higgsml/pipeline"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
	"github.com/YuminosukeSato/higgsml/rgf"
)

func newPredictCmd(a *app) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score test events with every model under the save directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if data == "" {
				data = cfg.Paths.TestCSV
			}
			if data == "" {
				return errors.NewValidationError("paths.test_csv", "test file is required", data)
			}

			ctx := cmd.Context()
			ds, err := dataset.Load(ctx, data,
				dataset.WithSentinel(cfg.Training.Sentinel),
				dataset.WithLogger(log.GetLoggerWithName("dataset")),
			)
			if err != nil {
				return err
			}

			runner, err := rgf.NewRunner(cfg.Learner, cfg.Paths.Workdirs(),
				rgf.WithLogger(log.GetLoggerWithName("rgf")))
			if err != nil {
				return err
			}
			predictor := pipeline.NewPredictor(runner,
				pipeline.WithLogger(log.GetLoggerWithName("pipeline")),
				pipeline.WithMetrics(a.metrics),
			)
			result, err := predictor.Run(ctx, pipeline.PredictRequest{Test: ds.Features})
			if result != nil {
				for _, p := range result.Predictions {
					if p.Err == nil {
						fmt.Fprintln(cmd.OutOrStdout(), p.PredictionFile)
					}
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "test event file (defaults to paths.test_csv)")
	return cmd
}
