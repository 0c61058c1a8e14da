package prepare

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

func homes(t *testing.T, rows ...[]table.Value) *table.Table {
	t.Helper()
	tbl := table.MustNew("parcelid", "propertylandusedesc", "unitcnt", "bedrooms")
	for _, r := range rows {
		if err := tbl.AppendRow(r...); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return tbl
}

func TestSingleFamilyPredicate(t *testing.T) {
	tbl := homes(t,
		[]table.Value{table.Num(1), table.Str("Single Family Residential"), table.Num(1), table.Num(3)},
		[]table.Value{table.Num(2), table.Str("Single Family Residential"), table.Num(2), table.Num(3)},
		[]table.Value{table.Num(3), table.Str("Condo"), table.Num(1), table.Num(2)},
	)
	out, err := SingleFamily(tbl, DefaultSingleFamilyOptions())
	if err != nil {
		t.Fatalf("SingleFamily: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("rows = %d, want 1", out.Len())
	}
	if !sameTable(out, tbl.Head(1)) {
		t.Fatalf("expected exactly the first row")
	}
}

func TestSingleFamilyNullHandling(t *testing.T) {
	sfr := table.Str(SingleFamilyLandUse)
	tbl := homes(t,
		// kept: null unit count
		[]table.Value{table.Num(1), sfr, table.Null(), table.Num(3)},
		// kept: null bedrooms
		[]table.Value{table.Num(2), sfr, table.Num(1), table.Null()},
		// dropped: null land use
		[]table.Value{table.Num(3), table.Null(), table.Num(1), table.Num(3)},
		// dropped: zero units
		[]table.Value{table.Num(4), sfr, table.Num(0), table.Num(3)},
		// dropped: three units
		[]table.Value{table.Num(5), sfr, table.Num(3), table.Num(3)},
		// dropped: no bedrooms
		[]table.Value{table.Num(6), sfr, table.Num(1), table.Num(0)},
		// kept: 4 units is not excluded
		[]table.Value{table.Num(7), sfr, table.Num(4), table.Num(5)},
	)
	out, err := SingleFamily(tbl, DefaultSingleFamilyOptions())
	if err != nil {
		t.Fatalf("SingleFamily: %v", err)
	}
	ids, _ := out.Floats("parcelid")
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 7 {
		t.Fatalf("kept parcels = %v, want [1 2 7]", ids)
	}
}

func TestSingleFamilyMissingColumn(t *testing.T) {
	tbl := table.MustNew("propertylandusedesc", "bedrooms")
	if _, err := SingleFamily(tbl, DefaultSingleFamilyOptions()); !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("err = %v, want ErrColumnNotFound", err)
	}
}

func TestDropDuplicatesKeepsLast(t *testing.T) {
	tbl := table.MustNew("parcelid", "transactiondate")
	_ = tbl.AppendRow(table.Num(10), table.Str("2017-01-01"))
	_ = tbl.AppendRow(table.Num(11), table.Str("2017-02-01"))
	_ = tbl.AppendRow(table.Num(10), table.Str("2017-06-30"))

	last, err := DropDuplicates(tbl, "parcelid", true)
	if err != nil {
		t.Fatalf("DropDuplicates: %v", err)
	}
	if last.Len() != 2 {
		t.Fatalf("rows = %d", last.Len())
	}
	if d, _ := last.Row(1).Get("transactiondate").Text(); d != "2017-06-30" {
		t.Fatalf("kept %s, want latest transaction", d)
	}

	first, err := DropDuplicates(tbl, "parcelid", false)
	if err != nil {
		t.Fatalf("DropDuplicates first: %v", err)
	}
	if d, _ := first.Row(0).Get("transactiondate").Text(); d != "2017-01-01" {
		t.Fatalf("kept %s, want first transaction", d)
	}
}

func TestDummiesDropFirst(t *testing.T) {
	tbl := table.MustNew("customer_id", "gender", "age")
	_ = tbl.AppendRow(table.Num(1), table.Str("Male"), table.Num(19))
	_ = tbl.AppendRow(table.Num(2), table.Str("Female"), table.Num(21))
	_ = tbl.AppendRow(table.Num(3), table.Null(), table.Num(22))

	out, err := Dummies(tbl, "gender", true)
	if err != nil {
		t.Fatalf("Dummies: %v", err)
	}
	if got := strings.Join(out.Columns(), ","); got != "customer_id,age,Male" {
		t.Fatalf("columns = %s", got)
	}
	male, _ := out.Floats("Male")
	if male[0] != 1 || male[1] != 0 || male[2] != 0 {
		t.Fatalf("Male = %v", male)
	}

	all, err := Dummies(tbl, "gender", false)
	if err != nil {
		t.Fatalf("Dummies all: %v", err)
	}
	if got := strings.Join(all.Columns(), ","); got != "customer_id,age,Female,Male" {
		t.Fatalf("columns = %s", got)
	}
}

func TestMinMaxScaler(t *testing.T) {
	train := numTable(t, []string{"age", "const"}, []float64{20, 5}, []float64{40, 5}, []float64{30, 5})
	test := table.MustNew("age", "const")
	_ = test.AppendRow(table.Num(50), table.Num(5))
	_ = test.AppendRow(table.Null(), table.Num(5))

	var s MinMaxScaler
	if _, err := s.Transform(train); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("err = %v, want ErrNotFitted", err)
	}
	if err := s.Fit(train); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	scaled, err := s.Transform(train)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got := column(t, scaled, "age"); got[0] != 0 || got[1] != 1 || got[2] != 0.5 {
		t.Fatalf("age = %v", got)
	}
	if got := column(t, scaled, "const"); got[0] != 0 {
		t.Fatalf("zero-range column = %v", got)
	}
	scaledTest, err := s.Transform(test)
	if err != nil {
		t.Fatalf("Transform test: %v", err)
	}
	if v, _ := scaledTest.Row(0).Get("age").Float(); v != 1.5 {
		t.Fatalf("unseen value = %v, want 1.5", v)
	}
	if !scaledTest.Row(1).Get("age").IsNull() {
		t.Fatalf("null should pass through")
	}
}
