// Command higgsml prepares Higgs boson event files, trains Regularized
// Greedy Forest models on them through an external learner and scores
// test events with every trained model.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/higgsml/config"
	"github.com/YuminosukeSato/higgsml/pipeline"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
)

type app struct {
	configPath  string
	logLevel    string
	metricsFile string

	cfg     *config.Config
	logger  log.Logger
	metrics *pipeline.Metrics
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "higgsml",
		Short: "Feature engineering and RGF training for Higgs boson events",
		Long: `higgsml turns raw Higgs boson event files into engineered feature tables,
trains a full-data model plus one model per cross-validation fold with an
external RGF learner, and scores test events with every trained model.

Configuration is read from --config, then overridden by HIGGSML_* variables.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write run metrics to this file on exit")

	root.AddCommand(newTrainCmd(a), newPredictCmd(a), newFeaturesCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg

	var provider log.LoggerProvider
	if cfg.Logging.Format == "console" {
		provider = log.NewConsoleProvider(cmd.ErrOrStderr(), cfg.LogLevel())
	} else {
		provider = log.NewZerologProvider(cmd.ErrOrStderr(), cfg.LogLevel())
	}
	log.SetProvider(provider)
	a.logger = log.GetLoggerWithName("cli")
	a.metrics = pipeline.NewMetrics()
	return nil
}

// run executes the command line in args. The metrics file is written even
// when the command fails, so that failed learner runs are recorded.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a.metricsFile != "" && a.metrics != nil {
		err = errors.Join(err, a.metrics.WriteToTextfile(a.metricsFile))
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "higgsml:", err)
		os.Exit(1)
	}
}
