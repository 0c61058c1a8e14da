package prepare

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// Step is one named table transformation.
type Step struct {
	Name  string
	Apply func(*table.Table) (*table.Table, string, error)
}

// StepRecord describes what a step did to the table shape.
type StepRecord struct {
	Name     string        `json:"name"`
	RowsIn   int           `json:"rows_in"`
	ColsIn   int           `json:"cols_in"`
	RowsOut  int           `json:"rows_out"`
	ColsOut  int           `json:"cols_out"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Pipeline runs steps in order, stopping at the first error.
type Pipeline struct {
	Steps []Step
	Log   logrus.FieldLogger
	// AfterStep, if set, is called with each step's output.
	AfterStep func(rec StepRecord, out *table.Table)
}

// Run applies all steps to t.
func (p *Pipeline) Run(t *table.Table) (*table.Table, []StepRecord, error) {
	log := p.Log
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	records := make([]StepRecord, 0, len(p.Steps))
	cur := t
	for _, s := range p.Steps {
		start := time.Now()
		rec := StepRecord{Name: s.Name, RowsIn: cur.Len(), ColsIn: cur.Width()}
		out, detail, err := s.Apply(cur)
		if err != nil {
			return nil, records, fmt.Errorf("%s: %w", s.Name, err)
		}
		rec.RowsOut, rec.ColsOut = out.Shape()
		rec.Detail = detail
		rec.Duration = time.Since(start)
		log.WithFields(logrus.Fields{
			"step":     s.Name,
			"rows_in":  rec.RowsIn,
			"rows_out": rec.RowsOut,
			"cols_in":  rec.ColsIn,
			"cols_out": rec.ColsOut,
		}).Debug("step done")
		records = append(records, rec)
		if p.AfterStep != nil {
			p.AfterStep(rec, out)
		}
		cur = out
	}
	return cur, records, nil
}

// ZillowOptions configures the zillow cleaning steps.
type ZillowOptions struct {
	SingleFamily SingleFamilyOptions
	Missing      MissingOptions
	Outliers     OutlierOptions
}

// ZillowSteps filters single-family homes, prunes sparse columns and rows,
// then removes outliers on the configured columns. Outlier columns pruned by
// the missing-value step are skipped; any other unknown column is an error.
func ZillowSteps(opt ZillowOptions) []Step {
	var pruned []string
	return []Step{
		{Name: "single-family", Apply: func(t *table.Table) (*table.Table, string, error) {
			out, err := SingleFamily(t, opt.SingleFamily)
			return out, "", err
		}},
		{Name: "missing-values", Apply: func(t *table.Table) (*table.Table, string, error) {
			out, err := HandleMissingValues(t, opt.Missing)
			if err != nil {
				return nil, "", err
			}
			pruned = lo.Without(t.Columns(), out.Columns()...)
			return out, fmt.Sprintf("dropped %d columns", len(pruned)), nil
		}},
		{Name: "outliers", Apply: func(t *table.Table) (*table.Table, string, error) {
			o := opt.Outliers
			o.Columns = lo.Without(o.Columns, pruned...)
			out, bounds, err := RemoveOutliers(t, o)
			if err != nil {
				return nil, "", err
			}
			return out, fmt.Sprintf("%s over %d columns", o.Mode, len(bounds)), nil
		}},
	}
}

// MallOptions configures the mall customer steps.
type MallOptions struct {
	IndexColumn   string
	DummyColumn   string
	IQRMultiplier float64
}

// MallSteps removes outliers across numeric columns (the index excluded) and
// one-hot encodes the categorical column.
func MallSteps(opt MallOptions) []Step {
	steps := []Step{
		{Name: "outliers", Apply: func(t *table.Table) (*table.Table, string, error) {
			var exclude []string
			if opt.IndexColumn != "" {
				exclude = append(exclude, opt.IndexColumn)
			}
			out, bounds, err := DetectOutliers(t, DetectOptions{Exclude: exclude, Multiplier: opt.IQRMultiplier})
			if err != nil {
				return nil, "", err
			}
			return out, fmt.Sprintf("cumulative over %d numeric columns", len(bounds)), nil
		}},
	}
	if opt.DummyColumn != "" {
		steps = append(steps, Step{Name: "dummies", Apply: func(t *table.Table) (*table.Table, string, error) {
			out, err := Dummies(t, opt.DummyColumn, true)
			return out, "", err
		}})
	}
	return steps
}

// ScalePartitions fits a MinMaxScaler on train and applies it to all three.
func ScalePartitions(train, validate, test *table.Table, columns []string) (*table.Table, *table.Table, *table.Table, *MinMaxScaler, error) {
	var s MinMaxScaler
	if err := s.Fit(train, columns...); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("fit scaler: %w", err)
	}
	out := make([]*table.Table, 3)
	for i, t := range []*table.Table{train, validate, test} {
		scaled, err := s.Transform(t)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		out[i] = scaled
	}
	return out[0], out[1], out[2], &s, nil
}
