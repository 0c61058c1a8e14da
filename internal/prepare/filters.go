package prepare

import (
	"github.com/samber/lo"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// SingleFamilyLandUse is the land-use description of single-family homes.
const SingleFamilyLandUse = "Single Family Residential"

// excludedUnitCounts are unit counts that mark a parcel as not a single home.
var excludedUnitCounts = []float64{0, 2, 3}

// SingleFamilyOptions names the columns the single-family filter reads.
type SingleFamilyOptions struct {
	LandUseColumn   string
	UnitCountColumn string
	BedroomColumn   string
}

// DefaultSingleFamilyOptions returns the zillow column names.
func DefaultSingleFamilyOptions() SingleFamilyOptions {
	return SingleFamilyOptions{
		LandUseColumn:   "propertylandusedesc",
		UnitCountColumn: "unitcnt",
		BedroomColumn:   "bedrooms",
	}
}

// SingleFamily keeps single-family residential rows: land use equal to
// SingleFamilyLandUse, unit count not 0, 2 or 3, and a non-zero bedroom count.
// A missing land use fails; a missing unit or bedroom count passes.
func SingleFamily(t *table.Table, opt SingleFamilyOptions) (*table.Table, error) {
	for _, c := range []string{opt.LandUseColumn, opt.UnitCountColumn, opt.BedroomColumn} {
		if _, err := t.ColumnIndex(c); err != nil {
			return nil, err
		}
	}
	return t.Filter(func(r table.Row) bool {
		if s, ok := r.Get(opt.LandUseColumn).Text(); !ok || s != SingleFamilyLandUse {
			return false
		}
		if u, ok := r.Get(opt.UnitCountColumn).Float(); ok && lo.Contains(excludedUnitCounts, u) {
			return false
		}
		if b, ok := r.Get(opt.BedroomColumn).Float(); ok && b == 0 {
			return false
		}
		return true
	}), nil
}

// DropDuplicates removes rows whose key repeats an earlier (or, with
// keepLast, a later) row. Null keys are compared like any other value.
func DropDuplicates(t *table.Table, key string, keepLast bool) (*table.Table, error) {
	col, err := t.Column(key)
	if err != nil {
		return nil, err
	}
	// last position of every key
	last := make(map[string]int, len(col))
	for i, v := range col {
		last[cellKey(v)] = i
	}
	seen := make(map[string]struct{}, len(col))
	keep := make([]int, 0, len(last))
	for i, v := range col {
		k := cellKey(v)
		if keepLast {
			if last[k] == i {
				keep = append(keep, i)
			}
			continue
		}
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			keep = append(keep, i)
		}
	}
	return t.Take(keep), nil
}

func cellKey(v table.Value) string {
	return v.Kind().String() + ":" + v.String()
}
