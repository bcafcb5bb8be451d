// Package higgsml trains Regularized Greedy Forest models on Higgs boson
// event data.
//
// The pipeline has four stages:
//
//   - dataset: read the event CSV, drop events without a reconstructed mass,
//     encode labels and normalize weights per class
//   - preprocessing: replace raw angles with rotation-invariant kinematic
//     features (relative azimuths, centralities, transverse and invariant
//     masses, momentum sums)
//   - pipeline.Trainer: launch the external learner once on the full data
//     and once per cross-validation fold, then drain the runs in launch order
//   - pipeline.Predictor: score the test events with every model file found
//     under the save directory
//
// # Quick Start
//
//	cfg, err := config.Load("higgsml.yaml")
//	if err != nil {
//	    return err
//	}
//	ds, err := dataset.Load(ctx, cfg.Paths.TrainCSV)
//	if err != nil {
//	    return err
//	}
//	runner, err := rgf.NewRunner(cfg.Learner, cfg.Paths.Workdirs())
//	if err != nil {
//	    return err
//	}
//	result, err := pipeline.NewTrainer(runner).Start(ctx, pipeline.TrainRequest{
//	    Name:   cfg.Training.ModelName,
//	    Data:   ds,
//	    Params: cfg.Training.Params,
//	})
//
// # Packages
//
//   - physics: event file column schema
//   - core/table: column-major event table backed by gonum
//   - core/model: Transformer interface
//   - core/parallel: row-range parallelism
//   - preprocessing: kinematic feature transform
//   - dataset: loader, weight normalization, augmentation for weight models
//   - sklearn/model_selection: deterministic K-fold assignment
//   - rgf: learner settings files, matrix files, process handling
//   - pipeline: training orchestrator, prediction aggregator, metrics
//   - config: YAML and environment configuration
//   - pkg/errors, pkg/log: structured errors and logging
//
// The command line front end lives in cmd/higgsml.
package higgsml
