package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "higgsml.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "perl", cfg.Learner.Executable)
	assert.Equal(t, []string{"call_exe.pl", "rgf"}, cfg.Learner.Args)
	assert.Equal(t, "w", cfg.Training.ModelName)
	assert.Equal(t, 7, cfg.Training.Folds)
	assert.True(t, cfg.Training.PredictWeights)
	assert.Equal(t, -999.0, cfg.Training.Sentinel)
	assert.Equal(t, "RGF", cfg.Training.Params["algorithm"])
	assert.Equal(t, "temp", cfg.Paths.Workdirs().Temp)
	assert.Equal(t, log.LevelInfo, cfg.LogLevel())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
learner:
  executable: /opt/rgf/bin/rgf
  inline: true
paths:
  temp: /scratch/tmp
  save: /scratch/models
  train_csv: data/training.csv
training:
  model_name: m
  folds: 5
  predict_weights: false
  params:
    algorithm: RGF_Sib
    reg_L2: 0.5
logging:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/rgf/bin/rgf", cfg.Learner.Executable)
	assert.True(t, cfg.Learner.Inline)
	assert.Equal(t, "/scratch/models", cfg.Paths.Save)
	assert.Equal(t, "data/training.csv", cfg.Paths.TrainCSV)
	assert.Equal(t, "m", cfg.Training.ModelName)
	assert.Equal(t, 5, cfg.Training.Folds)
	assert.False(t, cfg.Training.PredictWeights)
	assert.Equal(t, "RGF_Sib", cfg.Training.Params["algorithm"])
	assert.Equal(t, "0.5", cfg.Training.Params["reg_L2"])
	assert.Equal(t, log.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
training:
  model_name: m
  folds: 5
`)
	t.Setenv("HIGGSML_TRAINING_FOLDS", "3")
	t.Setenv("HIGGSML_PATHS_SAVE", "/env/models")
	t.Setenv("HIGGSML_LEARNER_ARGS", "wrapper.pl,bin/rgf")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "m", cfg.Training.ModelName)
	assert.Equal(t, 3, cfg.Training.Folds)
	assert.Equal(t, "/env/models", cfg.Paths.Save)
	assert.Equal(t, []string{"wrapper.pl", "bin/rgf"}, cfg.Learner.Args)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"empty model name", "training:\n  model_name: \"\"\n", "training.modelname"},
		{"too few folds", "training:\n  folds: 1\n", "training.folds"},
		{"unknown log level", "logging:\n  level: verbose\n", "logging.level"},
		{"no save dir", "paths:\n  save: \"\"\n", "paths.save"},
		{"no executable", "learner:\n  executable: \"\"\n", "learner.executable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr), "got %v", err)
			assert.Equal(t, tt.field, valErr.ParamName)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "training: [unclosed"))
	assert.Error(t, err)

	t.Setenv("HIGGSML_TRAINING_FOLDS", "many")
	_, err = Load("")
	assert.Error(t, err)
}
