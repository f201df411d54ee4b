// Package log defines standard attribute keys for svmkit operations.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that training and search logs can be filtered the same
// way across packages.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model. Examples: "SVM"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "train", "train_auto", "predict", "calc_error"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	// Examples: "svm", "svm.search", "config"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of distinct class labels.
	ClassesKey = "data.classes"
)

// Performance and Search
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// ErrorRateKey records a misclassification rate or mean squared error.
	ErrorRateKey = "metrics.error"

	// IterationKey records the number of solver iterations.
	IterationKey = "training.iteration"

	// FoldsKey records the number of cross-validation folds.
	FoldsKey = "search.folds"

	// CandidatesKey records the number of hyperparameter combinations.
	CandidatesKey = "search.candidates"

	// CandidateIndexKey records the enumeration index of a combination.
	CandidateIndexKey = "search.candidate_index"

	// WorkersKey records the size of the worker pool.
	WorkersKey = "search.workers"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// StacktraceKey contains stack trace information extracted from cockroachdb/errors.
	StacktraceKey = "error.stacktrace"
)

// Hyperparameters
const (
	// HyperParamsKey contains model hyperparameters as a structured object.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationTrain     = "train"
	OperationTrainAuto = "train_auto"
	OperationPredict   = "predict"
	OperationCalcError = "calc_error"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"
	PhaseInference  = "inference"

	ErrorNotFitted    = "NOT_FITTED"
	ErrorInvalidInput = "INVALID_INPUT"
	ErrorConvergence  = "CONVERGENCE_FAILURE"
)
