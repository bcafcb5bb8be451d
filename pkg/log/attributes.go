// Package log defines standard attribute keys for pipeline logging.
//
// Keys follow a hierarchical naming convention (e.g. "run.name",
// "data.samples") so that learner runs can be filtered and correlated
// across training and prediction passes.

package log

// Component and operation context.
const (
	// ComponentKey identifies the package emitting the record.
	// Examples: "dataset", "preprocessing", "rgf", "pipeline"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// PhaseKey indicates the lifecycle phase.
	PhaseKey = "ml.phase"

	// ModelNameKey is the base model name given to the orchestrator.
	ModelNameKey = "model.name"
)

// Learner run context.
const (
	// RunNameKey is the per-process model name, e.g. "w_full" or "w_cv3".
	RunNameKey = "run.name"

	// RunIDKey is a unique id assigned to each launched learner process.
	RunIDKey = "run.id"

	// FoldKey is the cross-validation fold index.
	FoldKey = "run.fold"

	// ExitCodeKey is the learner's exit status.
	ExitCodeKey = "run.exit_code"

	// ArtifactKey is the path of a model artifact.
	ArtifactKey = "run.artifact"

	// LineKey carries one line of learner console output.
	LineKey = "run.line"

	// SettingsKey is the path of the learner settings file.
	SettingsKey = "run.settings"
)

// Data shape.
const (
	// SamplesKey is the number of rows.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns.
	FeaturesKey = "data.features"

	// DroppedKey is the number of rows removed by filtering.
	DroppedKey = "data.dropped"

	// MissingKey is the number of missing input values.
	MissingKey = "data.missing"

	// PathKey is an input or output file path.
	PathKey = "data.path"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Standard attribute values.
const (
	OperationLoad         = "load"
	OperationTransform    = "transform"
	OperationTrain        = "train"
	OperationTrainPredict = "train_predict"
	OperationPredict      = "predict"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)
