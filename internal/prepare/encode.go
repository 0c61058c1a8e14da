package prepare

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// ErrNotFitted is returned when a scaler is used before Fit.
var ErrNotFitted = errors.New("scaler is not fitted")

// Dummies one-hot encodes a categorical column. One 0/1 column per distinct
// non-null value is appended, named after the value and sorted; with
// dropFirst the first category is omitted. The source column is removed.
func Dummies(t *table.Table, column string, dropFirst bool) (*table.Table, error) {
	vals, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	cats := lo.Uniq(lo.FilterMap(vals, func(v table.Value, _ int) (string, bool) {
		return v.String(), !v.IsNull()
	}))
	sort.Strings(cats)
	if dropFirst && len(cats) > 0 {
		cats = cats[1:]
	}

	out, err := t.Drop(column)
	if err != nil {
		return nil, err
	}
	for _, cat := range cats {
		if out.HasColumn(cat) {
			return nil, fmt.Errorf("dummy column %q: %w", cat, table.ErrDuplicateColumn)
		}
		ind := make([]table.Value, len(vals))
		for i, v := range vals {
			if !v.IsNull() && v.String() == cat {
				ind[i] = table.Num(1)
			} else {
				ind[i] = table.Num(0)
			}
		}
		if out, err = out.SetColumn(cat, ind); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MinMaxScaler rescales numeric columns to [0, 1] using the range seen by Fit.
type MinMaxScaler struct {
	Columns []string           `json:"columns"`
	Min     map[string]float64 `json:"min"`
	Max     map[string]float64 `json:"max"`
}

// Fit learns per-column minimum and maximum over non-null values.
// With no columns given, every numeric column is used.
func (s *MinMaxScaler) Fit(t *table.Table, columns ...string) error {
	if len(columns) == 0 {
		columns = t.NumericColumns()
	}
	s.Columns = append([]string(nil), columns...)
	s.Min = make(map[string]float64, len(columns))
	s.Max = make(map[string]float64, len(columns))
	for _, c := range columns {
		vals, err := t.Floats(c)
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			return fmt.Errorf("fit %q: no values", c)
		}
		s.Min[c] = lo.Min(vals)
		s.Max[c] = lo.Max(vals)
	}
	return nil
}

// Transform maps x to (x-min)/(max-min). A zero range divides by one.
// Nulls pass through unchanged.
func (s *MinMaxScaler) Transform(t *table.Table) (*table.Table, error) {
	if s.Min == nil {
		return nil, ErrNotFitted
	}
	out := t
	for _, c := range s.Columns {
		vals, err := out.Column(c)
		if err != nil {
			return nil, err
		}
		low, high := s.Min[c], s.Max[c]
		scale := high - low
		if scale == 0 {
			scale = 1
		}
		scaled := make([]table.Value, len(vals))
		for i, v := range vals {
			if v.IsNull() {
				continue
			}
			x, ok := v.Float()
			if !ok {
				return nil, fmt.Errorf("%w: %q row %d", table.ErrNotNumeric, c, i)
			}
			scaled[i] = table.Num((x - low) / scale)
		}
		if out, err = out.SetColumn(c, scaled); err != nil {
			return nil, err
		}
	}
	if out == t {
		out = t.Clone()
	}
	return out, nil
}
