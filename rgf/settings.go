package rgf

import (
	"bufio"
	"os"

	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

// Settings is the content of a learner settings file.
type Settings struct {
	TrainX string
	TrainY string
	TrainW string
	TestX  string

	ModelPrefix    string
	ModelFile      string
	PredictionFile string

	Params Params

	SaveLastModelOnly bool
	Verbose           bool
}

// Lines renders the settings in file order: paths, then sorted
// hyperparameters, then flags. Empty paths are omitted.
func (s Settings) Lines() []string {
	var lines []string
	add := func(key, value string) {
		if value != "" {
			lines = append(lines, key+"="+value)
		}
	}
	add("train_x_fn", s.TrainX)
	add("train_y_fn", s.TrainY)
	add("train_w_fn", s.TrainW)
	add("test_x_fn", s.TestX)
	add("model_fn_prefix", s.ModelPrefix)
	add("model_fn", s.ModelFile)
	add("prediction_fn", s.PredictionFile)
	lines = append(lines, s.Params.Lines()...)
	if s.SaveLastModelOnly {
		lines = append(lines, "SaveLastModelOnly")
	}
	if s.Verbose {
		lines = append(lines, "Verbose")
	}
	return lines
}

// WriteFile writes the settings to path, one entry per line.
func (s Settings) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "rgf: create settings %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "rgf: close settings %s", path)
		}
	}()

	w := bufio.NewWriter(f)
	for _, line := range s.Lines() {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return errors.Wrapf(err, "rgf: write settings %s", path)
		}
	}
	return errors.Wrapf(w.Flush(), "rgf: write settings %s", path)
}
