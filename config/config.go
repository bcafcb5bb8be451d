// Package config loads the higgsml configuration from a YAML file and the
// environment.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
	"github.com/YuminosukeSato/higgsml/rgf"
)

// EnvPrefix prefixes every environment override, e.g.
// HIGGSML_TRAINING_MODEL_NAME.
const EnvPrefix = "HIGGSML"

// Config is the complete application configuration.
type Config struct {
	Learner  rgf.LearnerConfig `yaml:"learner" envconfig:"LEARNER"`
	Paths    PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Training TrainingConfig    `yaml:"training" envconfig:"TRAINING"`
	Logging  LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
}

// PathsConfig holds the input files and working directories.
type PathsConfig struct {
	Temp     string `yaml:"temp" envconfig:"TEMP" validate:"required"`
	Save     string `yaml:"save" envconfig:"SAVE" validate:"required"`
	TrainCSV string `yaml:"train_csv" envconfig:"TRAIN_CSV"`
	TestCSV  string `yaml:"test_csv" envconfig:"TEST_CSV"`
}

// Workdirs returns the learner working directories.
func (p PathsConfig) Workdirs() rgf.Workdirs {
	return rgf.Workdirs{Temp: p.Temp, Save: p.Save}
}

// TrainingConfig holds the settings of a training session.
type TrainingConfig struct {
	ModelName      string            `yaml:"model_name" envconfig:"MODEL_NAME" validate:"required"`
	Folds          int               `yaml:"folds" envconfig:"FOLDS" validate:"gte=2"`
	PredictWeights bool              `yaml:"predict_weights" envconfig:"PREDICT_WEIGHTS"`
	Sentinel       float64           `yaml:"sentinel" envconfig:"SENTINEL"`
	Params         map[string]string `yaml:"params" envconfig:"PARAMS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json console"`
}

// Default returns the configuration used when no file or environment
// override is given.
func Default() *Config {
	return &Config{
		Learner: rgf.LearnerConfig{
			Executable: "perl",
			Args:       []string{"call_exe.pl", "rgf"},
		},
		Paths: PathsConfig{
			Temp: "temp",
			Save: "models",
		},
		Training: TrainingConfig{
			ModelName:      "w",
			Folds:          7,
			PredictWeights: true,
			Sentinel:       errors.MissingSentinel,
			Params:         rgf.DefaultParams(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load starts from Default, applies the YAML file at path when path is not
// empty, applies HIGGSML_* environment variables and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "config: parse %s", path)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "config: environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration. The first failure is returned as a
// *errors.ValidationError naming the offending field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(fieldPath(fe.Namespace()), "failed '"+fe.Tag()+"' check", fe.Value())
		}
		return errors.Wrap(err, "config: validate")
	}
	return c.Learner.Validate()
}

// LogLevel returns the configured logging level.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

// fieldPath turns "Config.Training.ModelName" into "training.modelname".
func fieldPath(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	return strings.ToLower(ns)
}
