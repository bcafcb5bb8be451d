package rgf

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

// Learner modes.
const (
	ModeTrain        = "train"
	ModeTrainPredict = "train_predict"
	ModePredict      = "predict"
)

// LearnerConfig locates the external learner and describes how to invoke it.
//
// The command line is Executable, then Args, then the mode, then either the
// settings path without its .inp extension or, when Inline is set, the
// settings joined with commas.
type LearnerConfig struct {
	// Executable is the learner binary or a wrapper such as "perl".
	Executable string `yaml:"executable" envconfig:"EXECUTABLE" validate:"required"`
	// Args are passed before the mode, e.g. ["call_exe.pl", "bin/rgf"].
	Args []string `yaml:"args" envconfig:"ARGS"`
	// Inline passes the settings on the command line instead of by path.
	Inline bool `yaml:"inline" envconfig:"INLINE"`
	// Dir is the working directory of the child. Empty means the current one.
	Dir string `yaml:"dir" envconfig:"DIR"`
	// Env entries are appended to the inherited environment.
	Env []string `yaml:"env" envconfig:"ENV"`
}

// Validate reports whether the configuration can launch a learner.
func (c LearnerConfig) Validate() error {
	if strings.TrimSpace(c.Executable) == "" {
		return errors.NewValidationError("learner.executable", "must not be empty", c.Executable)
	}
	return nil
}

func (c LearnerConfig) argv(mode, settingsPath string, settings []string) []string {
	args := make([]string, 0, len(c.Args)+2)
	args = append(args, c.Args...)
	args = append(args, mode)
	if c.Inline {
		return append(args, strings.Join(settings, ","))
	}
	return append(args, strings.TrimSuffix(settingsPath, filepath.Ext(settingsPath)))
}

// Workdirs are the roots under which the runner writes. Matrices and
// settings go under Temp; model artifacts go under Save.
type Workdirs struct {
	Temp string `yaml:"temp" envconfig:"TEMP" validate:"required"`
	Save string `yaml:"save" envconfig:"SAVE" validate:"required"`
}

// DataDir is the directory holding the matrices of the named run.
func (w Workdirs) DataDir(name string) string {
	return filepath.Join(w.Temp, name+"_data")
}

// OutputDir is the directory the named run writes its models to.
func (w Workdirs) OutputDir(name string) string {
	return filepath.Join(w.Save, name+"_output")
}

// Params are learner hyperparameters, written as key=value lines.
type Params map[string]string

// Lines returns the parameters as key=value lines sorted by key.
func (p Params) Lines() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + p[k]
	}
	return lines
}

// DefaultParams are the hyperparameters the forest is trained with when
// none are configured.
func DefaultParams() Params {
	return Params{
		"algorithm":       "RGF",
		"reg_L2":          "0.1",
		"reg_sL2":         "0.001",
		"loss":            "Log",
		"test_interval":   "1000",
		"max_leaf_forest": "50000",
	}
}
