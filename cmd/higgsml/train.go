package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/higgsml/dataset"
	"github.com/YuminosukeSato/higgsml/pipeline"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
	"github.com/YuminosukeSato/higgsml/rgf"
)

// plainModelName replaces a weight-style configured name under --no-weights.
const plainModelName = "m"

func newTrainCmd(a *app) *cobra.Command {
	var (
		data      string
		name      string
		noWeights bool
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the full-data model and one model per fold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if data == "" {
				data = cfg.Paths.TrainCSV
			}
			if data == "" {
				return errors.NewValidationError("paths.train_csv", "training file is required", data)
			}
			if noWeights {
				cfg.Training.PredictWeights = false
				if name == "" && strings.HasPrefix(cfg.Training.ModelName+"_", pipeline.WeightModelPrefix) {
					name = plainModelName
				}
			}
			if name != "" {
				cfg.Training.ModelName = name
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
			trainer := pipeline.NewTrainer(runner,
				pipeline.WithFolds(cfg.Training.Folds),
				pipeline.WithLogger(log.GetLoggerWithName("pipeline")),
				pipeline.WithMetrics(a.metrics),
			)
			result, err := trainer.Start(ctx, pipeline.TrainRequest{
				Name:           cfg.Training.ModelName,
				Data:           ds,
				Params:         cfg.Training.Params,
				PredictWeights: cfg.Training.PredictWeights,
			})
			if result != nil {
				a.logger.Info("training summary",
					log.RunIDKey, result.RunID,
					"runs", len(result.Runs),
					"failed", len(result.Failed()),
				)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "training event file (defaults to paths.train_csv)")
	cmd.Flags().StringVar(&name, "name", "", "base model name (defaults to training.model_name)")
	cmd.Flags().BoolVar(&noWeights, "no-weights", false, "train on the original events instead of the weight-prediction dataset (default name \""+plainModelName+"\")")
	return cmd
}
