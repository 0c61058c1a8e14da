package cmd

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/wrangle-cli/internal/acquire"
	"github.com/KaramelBytes/wrangle-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/wrangle-cli/internal/config"
	"github.com/KaramelBytes/wrangle-cli/internal/prepare"
	"github.com/KaramelBytes/wrangle-cli/internal/run"
	"github.com/KaramelBytes/wrangle-cli/internal/split"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

var (
	// Shared by both datasets
	prepSeed         int64
	prepTestSize     float64
	prepValidateSize float64
	prepIQRK         float64
	prepRefresh      bool
	prepQuiet        bool

	// zillow only
	prepPropCol        float64
	prepPropRow        float64
	prepOutlierMode    string
	prepOutlierColumns []string
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Clean a dataset and write train/validate/test partitions",
}

var prepareZillowCmd = &cobra.Command{
	Use:   "zillow",
	Short: "Single-family filter, missing values, outliers, split",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		s, err := prepareSettings(cmd, c)
		if err != nil {
			return err
		}
		f := cmd.Flags()
		s.PropRequiredColumn = c.PropRequiredColumn
		if f.Changed("prop-col") {
			s.PropRequiredColumn = prepPropCol
		}
		s.PropRequiredRow = c.PropRequiredRow
		if f.Changed("prop-row") {
			s.PropRequiredRow = prepPropRow
		}
		s.OutlierMode = c.OutlierMode
		if f.Changed("outlier-mode") {
			s.OutlierMode = prepOutlierMode
		}
		mode, err := prepare.ParseOutlierMode(s.OutlierMode)
		if err != nil {
			return err
		}
		s.OutlierMode = mode.String()
		s.OutlierColumns = c.OutlierColumns
		if f.Changed("outlier-columns") {
			s.OutlierColumns = prepOutlierColumns
		}
		if len(s.OutlierColumns) == 0 {
			s.OutlierColumns = prepare.ZillowOutlierColumns
		}

		steps := prepare.ZillowSteps(prepare.ZillowOptions{
			SingleFamily: prepare.DefaultSingleFamilyOptions(),
			Missing:      prepare.MissingOptions{PropRequiredColumn: s.PropRequiredColumn, PropRequiredRow: s.PropRequiredRow},
			Outliers:     prepare.OutlierOptions{Columns: s.OutlierColumns, Multiplier: s.IQRMultiplier, Mode: mode},
		})
		return runPrepare(cmd, c, "zillow", steps, s, false)
	},
}

var prepareMallCmd = &cobra.Command{
	Use:   "mall",
	Short: "Outliers, gender dummies, split, min-max scaling",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		s, err := prepareSettings(cmd, c)
		if err != nil {
			return err
		}
		s.OutlierMode = prepare.ModeCumulative.String()
		steps := prepare.MallSteps(prepare.MallOptions{
			IndexColumn:   "customer_id",
			DummyColumn:   "gender",
			IQRMultiplier: s.IQRMultiplier,
		})
		return runPrepare(cmd, c, "mall", steps, s, true)
	},
}

// prepareSettings merges the shared flags over the config values.
func prepareSettings(cmd *cobra.Command, c *cfgpkg.Global) (run.Settings, error) {
	f := cmd.Flags()
	s := run.Settings{
		IQRMultiplier: c.IQRMultiplier,
		Seed:          c.Seed,
		TestSize:      c.TestSize,
		ValidateSize:  c.ValidateSize,
	}
	if f.Changed("iqr-k") {
		s.IQRMultiplier = prepIQRK
	}
	if f.Changed("seed") {
		s.Seed = prepSeed
	}
	if f.Changed("test-size") {
		s.TestSize = prepTestSize
	}
	if f.Changed("validate-size") {
		s.ValidateSize = prepValidateSize
	}
	if s.IQRMultiplier <= 0 {
		return s, fmt.Errorf("invalid --iqr-k: %v (must be > 0)", s.IQRMultiplier)
	}
	return s, nil
}

// runPrepare loads the dataset, runs the steps, splits, optionally scales,
// and persists partitions plus run.json.
func runPrepare(cmd *cobra.Command, c *cfgpkg.Global, name string, steps []prepare.Step, s run.Settings, scale bool) error {
	out := cmd.OutOrStdout()
	log := logger()
	ds, err := acquire.Lookup(name)
	if err != nil {
		return err
	}
	l := newLoader(c)
	t, origin, err := loadDataset(cmd, l, ds, prepRefresh)
	if err != nil {
		return err
	}
	rows, cols := t.Shape()
	fmt.Fprintf(out, "✓ Loaded %s from %s: %d rows × %d columns\n", ds.Name, origin, rows, cols)

	p := prepare.Pipeline{
		Steps: steps,
		Log:   log,
		AfterStep: func(rec prepare.StepRecord, t *table.Table) {
			printStep(out, rec)
			// the first zillow step is followed by a look at what survived
			if !prepQuiet && rec.Name == "single-family" {
				analysis.Summarize(ds.Name+" (single-family)", t, analysis.DefaultOptions()).Render(out)
			}
		},
	}
	cleaned, records, err := p.Run(t)
	if err != nil {
		return err
	}

	train, validate, test, err := split.Split(cleaned, split.Options{
		TestSize:     s.TestSize,
		ValidateSize: s.ValidateSize,
		Seed:         s.Seed,
	})
	if err != nil {
		return fmt.Errorf("split: %w", err)
	}

	r := run.NewRun(ds.Name, c.OutputDir)
	r.Origin = string(origin)
	r.Source = l.CachePath(ds)
	r.Settings = s
	r.Steps = records

	if scale {
		columns := lo.Without(train.NumericColumns(), ds.IndexColumn)
		var scaler *prepare.MinMaxScaler
		train, validate, test, scaler, err = prepare.ScalePartitions(train, validate, test, columns)
		if err != nil {
			return err
		}
		r.Scaler = scaler
		fmt.Fprintf(out, "✓ Scaled %d columns to [0, 1] using train ranges\n", len(columns))
	}

	parts := []struct {
		name string
		t    *table.Table
	}{{"train", train}, {"validate", validate}, {"test", test}}
	for _, part := range parts {
		if err := r.AddOutput(part.name, part.t); err != nil {
			return err
		}
	}
	if err := r.Save(); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Split %d rows: train=%d validate=%d test=%d\n", cleaned.Len(), train.Len(), validate.Len(), test.Len())
	fmt.Fprintf(out, "✓ Wrote run %s to %s\n", r.ID, r.RootDir())
	log.WithField("run", r.ID).Debug("run manifest saved")
	return nil
}

func printStep(w io.Writer, rec prepare.StepRecord) {
	line := fmt.Sprintf("✓ %s: %d → %d rows, %d → %d columns", rec.Name, rec.RowsIn, rec.RowsOut, rec.ColsIn, rec.ColsOut)
	if rec.Detail != "" {
		line += " (" + rec.Detail + ")"
	}
	fmt.Fprintln(w, line)
	if rec.RowsOut == 0 {
		fmt.Fprintf(w, "⚠ Warning: %s removed every row\n", rec.Name)
	}
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepareCmd.AddCommand(prepareZillowCmd)
	prepareCmd.AddCommand(prepareMallCmd)

	pf := prepareCmd.PersistentFlags()
	pf.Int64Var(&prepSeed, "seed", 333, "shuffle seed for the split (overrides config)")
	pf.Float64Var(&prepTestSize, "test-size", 0.2, "share of rows held out as test (overrides config)")
	pf.Float64Var(&prepValidateSize, "validate-size", 0.25, "share of the remaining rows held out as validate (overrides config)")
	pf.Float64Var(&prepIQRK, "iqr-k", 1.5, "IQR multiplier for the outlier fences (overrides config)")
	pf.BoolVar(&prepRefresh, "refresh", false, "ignore the cache and query the database")
	pf.BoolVarP(&prepQuiet, "quiet", "q", false, "skip the intermediate summary")

	zf := prepareZillowCmd.Flags()
	zf.Float64Var(&prepPropCol, "prop-col", 0.5, "minimum share of non-null values a column needs (overrides config)")
	zf.Float64Var(&prepPropRow, "prop-row", 0.75, "minimum share of non-null values a row needs (overrides config)")
	zf.StringVar(&prepOutlierMode, "outlier-mode", "cumulative", "outlier filter mode: cumulative|first-column (overrides config)")
	zf.StringSliceVar(&prepOutlierColumns, "outlier-columns", nil, "comma-separated columns to filter outliers on (overrides config)")
}
