package main

import (
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/higgsml/dataset"
	"github.com/YuminosukeSato/higgsml/physics"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
)

func newFeaturesCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "features <events.csv>",
		Short: "Write the engineered feature table of an event file as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(cmd.Context(), args[0],
				dataset.WithSentinel(a.cfg.Training.Sentinel),
				dataset.WithLogger(log.GetLoggerWithName("dataset")),
			)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrapf(err, "features: create %s", out)
				}
				defer f.Close()
				w = f
			}
			if err := writeFeatures(w, ds); err != nil {
				return err
			}
			a.metrics.Preprocessed.Add(float64(ds.Len()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (defaults to stdout)")
	return cmd
}

// writeFeatures writes EventId when the input had one, the feature columns
// and, for training data, the normalized weight and the 0/1 target.
func writeFeatures(w io.Writer, ds *dataset.Dataset) error {
	var cols []series.Series
	if ds.EventIDs != nil {
		cols = append(cols, series.New(ds.EventIDs, series.Int, physics.EventID))
	}
	for _, name := range ds.Features.Names() {
		cols = append(cols, series.New(ds.Features.MustCol(name), series.Float, name))
	}
	if ds.Training() {
		cols = append(cols,
			series.New(ds.Weight, series.Float, physics.WeightCol),
			series.New(ds.Target, series.Int, physics.LabelCol),
		)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return errors.Wrap(df.Err, "features: build frame")
	}
	return errors.Wrap(df.WriteCSV(w), "features: write csv")
}
