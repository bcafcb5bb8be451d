package rgf

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/YuminosukeSato/higgsml/core/table"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeLearner echoes its mode and settings argument to stdout, writes one
// line to stderr and exits with $FAKE_RGF_EXIT.
const fakeLearner = `#!/bin/sh
echo "mode=$1"
echo "settings=$2"
if [ -n "$FAKE_RGF_LINES" ]; then
  i=0
  while [ $i -lt "$FAKE_RGF_LINES" ]; do
    echo "progress line $i padded to make the pipe fill up quickly"
    i=$((i+1))
  done
fi
echo "done" 1>&2
exit ${FAKE_RGF_EXIT:-0}
`

func newTestRunner(t *testing.T, env ...string) (*Runner, Workdirs) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake learner is a shell script")
	}
	root := t.TempDir()
	script := filepath.Join(root, "fake_rgf.sh")
	require.NoError(t, os.WriteFile(script, []byte(fakeLearner), 0o755))

	dirs := Workdirs{Temp: filepath.Join(root, "tmp"), Save: filepath.Join(root, "save")}
	logger, _ := log.NewTestLogger(log.LevelDebug)
	r, err := NewRunner(LearnerConfig{
		Executable: "/bin/sh",
		Args:       []string{script},
		Env:        env,
	}, dirs, WithLogger(logger))
	require.NoError(t, err)
	return r, dirs
}

func testJob(t *testing.T) Job {
	t.Helper()
	features, err := table.FromColumns([]string{"a", "b"}, [][]float64{{1, 2, 3}, {0.5, -999, 1e-7}})
	require.NoError(t, err)
	test, err := table.FromColumns([]string{"a", "b"}, [][]float64{{4}, {0.25}})
	require.NoError(t, err)
	return Job{
		Name:     "w_cv0",
		Features: features,
		Labels:   []float64{1, 0, 1},
		Weights:  []float64{0.5, 1, 2},
		Test:     test,
		Params:   Params{"reg_L2": "0.1", "algorithm": "RGF"},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func TestTrainPredict(t *testing.T) {
	r, dirs := newTestRunner(t)
	p, err := r.TrainPredict(context.Background(), testJob(t))
	require.NoError(t, err)

	var out []string
	status, err := p.Drain(func(line string) { out = append(out, line) })
	require.NoError(t, err)
	assert.True(t, status.Success())

	dataDir := filepath.Join(dirs.Temp, "w_cv0_data")
	settingsPath := filepath.Join(dataDir, "w_cv0.inp")
	assert.Equal(t, []string{
		"mode=train_predict",
		"settings=" + strings.TrimSuffix(settingsPath, ".inp"),
		"done",
	}, out)

	assert.Equal(t, []string{"1 0.5", "2 -999", "3 1e-07"}, readLines(t, filepath.Join(dataDir, TrainXFile)))
	assert.Equal(t, []string{"1", "-1", "1"}, readLines(t, filepath.Join(dataDir, TrainYFile)))
	assert.Equal(t, []string{"0.5", "1", "2"}, readLines(t, filepath.Join(dataDir, TrainWFile)))
	assert.Equal(t, []string{"4 0.25"}, readLines(t, filepath.Join(dataDir, TestXFile)))

	outDir := filepath.Join(dirs.Save, "w_cv0_output")
	assert.DirExists(t, outDir)
	assert.Equal(t, []string{
		"train_x_fn=" + filepath.Join(dataDir, TrainXFile),
		"train_y_fn=" + filepath.Join(dataDir, TrainYFile),
		"train_w_fn=" + filepath.Join(dataDir, TrainWFile),
		"test_x_fn=" + filepath.Join(dataDir, TestXFile),
		"model_fn_prefix=" + filepath.Join(outDir, "m"),
		"algorithm=RGF",
		"reg_L2=0.1",
		"SaveLastModelOnly",
		"Verbose",
	}, readLines(t, settingsPath))
}

func TestTrainWithoutWeights(t *testing.T) {
	r, dirs := newTestRunner(t)
	job := testJob(t)
	job.Name = "m_full"
	job.Weights = nil

	p, err := r.Train(context.Background(), job)
	require.NoError(t, err)
	_, err = p.Wait()
	require.NoError(t, err)

	dataDir := filepath.Join(dirs.Temp, "m_full_data")
	assert.NoFileExists(t, filepath.Join(dataDir, TrainWFile))
	assert.NoFileExists(t, filepath.Join(dataDir, TestXFile))

	settings := readLines(t, filepath.Join(dataDir, "m_full.inp"))
	assert.NotContains(t, settings, "SaveLastModelOnly")
	assert.Equal(t, "Verbose", settings[len(settings)-1])
	for _, line := range settings {
		assert.False(t, strings.HasPrefix(line, "train_w_fn"), line)
		assert.False(t, strings.HasPrefix(line, "test_x_fn"), line)
	}
}

func TestNonZeroExit(t *testing.T) {
	r, _ := newTestRunner(t, "FAKE_RGF_EXIT=3")
	p, err := r.TrainPredict(context.Background(), testJob(t))
	require.NoError(t, err)

	status, err := p.Drain(func(string) {})
	assert.Equal(t, 3, status.Code)
	assert.False(t, status.Success())

	var procErr *errors.ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, "w_cv0", procErr.Name)
	assert.Equal(t, ModeTrainPredict, procErr.Mode)
	assert.Equal(t, 3, procErr.ExitCode)

	// Wait is idempotent.
	status2, err2 := p.Wait()
	assert.Equal(t, status, status2)
	assert.Equal(t, err, err2)
}

func TestWaitDrainsUnreadOutput(t *testing.T) {
	// Far more output than a pipe buffer holds.
	r, _ := newTestRunner(t, "FAKE_RGF_LINES=20000")
	p, err := r.TrainPredict(context.Background(), testJob(t))
	require.NoError(t, err)

	status, err := p.Wait()
	require.NoError(t, err)
	assert.Equal(t, 0, status.Code)

	n := 0
	for range p.Lines() {
		n++
	}
	assert.Zero(t, n, "lines are not available after Wait")
}

func TestLinesSingleUse(t *testing.T) {
	r, _ := newTestRunner(t, "FAKE_RGF_LINES=50")
	p, err := r.TrainPredict(context.Background(), testJob(t))
	require.NoError(t, err)

	first := 0
	for range p.Lines() {
		first++
		if first == 2 {
			break
		}
	}
	second := 0
	for range p.Lines() {
		second++
	}
	assert.Equal(t, 2, first)
	assert.Zero(t, second)

	_, err = p.Wait()
	require.NoError(t, err)
}

func TestPredict(t *testing.T) {
	r, dirs := newTestRunner(t)
	model := filepath.Join(dirs.Save, "m_full_output", "m-01")
	require.NoError(t, os.MkdirAll(filepath.Dir(model), 0o755))
	require.NoError(t, os.WriteFile(model, []byte("forest"), 0o644))
	p, err := r.Predict(context.Background(), PredictJob{
		Name:           "m_full/m-01",
		TestFile:       filepath.Join(dirs.Temp, "test_data", TestXFile),
		ModelFile:      model,
		PredictionFile: model + ".pred",
	})
	require.NoError(t, err)

	var out []string
	_, err = p.Drain(func(line string) { out = append(out, line) })
	require.NoError(t, err)
	assert.Equal(t, "mode=predict", out[0])

	settingsPath := filepath.Join(dirs.Temp, "temp_pred.inp")
	assert.Equal(t, "settings="+strings.TrimSuffix(settingsPath, ".inp"), out[1])
	assert.Equal(t, []string{
		"test_x_fn=" + filepath.Join(dirs.Temp, "test_data", TestXFile),
		"model_fn=" + model,
		"prediction_fn=" + model + ".pred",
	}, readLines(t, settingsPath))
}

func TestPredictMissingModel(t *testing.T) {
	r, dirs := newTestRunner(t)
	_, err := r.Predict(context.Background(), PredictJob{
		Name:      "m_full/m-01",
		TestFile:  filepath.Join(dirs.Temp, TestXFile),
		ModelFile: filepath.Join(dirs.Save, "m_full_output", "m-01"),
	})
	var modelErr *errors.ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.True(t, os.IsNotExist(modelErr.Err))
}

func TestStartFailure(t *testing.T) {
	dirs := Workdirs{Temp: t.TempDir(), Save: t.TempDir()}
	logger, _ := log.NewTestLogger(log.LevelDebug)
	r, err := NewRunner(LearnerConfig{Executable: filepath.Join(dirs.Temp, "missing-binary")}, dirs, WithLogger(logger))
	require.NoError(t, err)

	_, err = r.TrainPredict(context.Background(), testJob(t))
	var procErr *errors.ProcessError
	require.True(t, errors.As(err, &procErr))
	assert.Equal(t, -1, procErr.ExitCode)
	assert.True(t, logger.ContainsMessage("learner failed to start"))
}

func TestRunValidation(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	job := testJob(t)
	job.Labels = []float64{1}
	_, err := r.Train(ctx, job)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	job = testJob(t)
	job.Weights = []float64{1, 2}
	_, err = r.Train(ctx, job)
	assert.True(t, errors.As(err, &dimErr))

	job = testJob(t)
	job.Test, _ = table.FromColumns([]string{"a"}, [][]float64{{1}})
	_, err = r.TrainPredict(ctx, job)
	assert.True(t, errors.As(err, &dimErr))

	job = testJob(t)
	job.Test = nil
	_, err = r.TrainPredict(ctx, job)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))

	job = testJob(t)
	job.Name = ""
	_, err = r.Train(ctx, job)
	assert.True(t, errors.As(err, &valErr))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Train(cancelled, testJob(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunnerValidation(t *testing.T) {
	var valErr *errors.ValidationError

	_, err := NewRunner(LearnerConfig{}, Workdirs{Temp: "t", Save: "s"})
	assert.True(t, errors.As(err, &valErr))

	_, err = NewRunner(LearnerConfig{Executable: "rgf"}, Workdirs{Save: "s"})
	assert.True(t, errors.As(err, &valErr))

	_, err = NewRunner(LearnerConfig{Executable: "rgf"}, Workdirs{Temp: "t"})
	assert.True(t, errors.As(err, &valErr))
}

func TestArgv(t *testing.T) {
	settings := []string{"train_x_fn=x", "Verbose"}

	cfg := LearnerConfig{Executable: "perl", Args: []string{"call_exe.pl", "bin/rgf"}}
	assert.Equal(t,
		[]string{"call_exe.pl", "bin/rgf", "train", "/tmp/m_data/m"},
		cfg.argv(ModeTrain, "/tmp/m_data/m.inp", settings))

	cfg = LearnerConfig{Executable: "rgf", Inline: true}
	assert.Equal(t,
		[]string{"predict", "train_x_fn=x,Verbose"},
		cfg.argv(ModePredict, "/tmp/temp_pred.inp", settings))
}

func TestWriteMatrix(t *testing.T) {
	m, err := table.FromColumns([]string{"a", "b", "c"}, [][]float64{{1, -999}, {0.1, 123456789}, {1e21, 2.5e-8}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, m))
	assert.Equal(t, "1 0.1 1e+21\n-999 1.23456789e+08 2.5e-08\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteMatrix(&buf, table.New(0)))
	assert.Empty(t, buf.String())

	buf.Reset()
	require.NoError(t, WriteVector(&buf, []float64{1, -1, 0.5}))
	assert.Equal(t, "1\n-1\n0.5\n", buf.String())
}

func TestEncodeLabels(t *testing.T) {
	assert.Equal(t, []float64{1, -1, 1, -1}, EncodeLabels([]float64{1, 0, 1, -1}))
}

func TestParamsLines(t *testing.T) {
	assert.Equal(t, []string{
		"algorithm=RGF",
		"loss=Log",
		"max_leaf_forest=50000",
		"reg_L2=0.1",
		"reg_sL2=0.001",
		"test_interval=1000",
	}, DefaultParams().Lines())
	assert.Empty(t, Params(nil).Lines())
}
