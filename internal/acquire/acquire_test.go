package acquire

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

func mockOpener(db *sql.DB) Opener {
	return func(driver, dsn string) (*sql.DB, error) { return db, nil }
}

func failOpener(t *testing.T) Opener {
	return func(driver, dsn string) (*sql.DB, error) {
		t.Fatalf("database opened for %s", dsn)
		return nil, nil
	}
}

func TestLookup(t *testing.T) {
	ds, err := Lookup(" Zillow ")
	require.NoError(t, err)
	assert.Equal(t, "parcelid", ds.DedupeKey)
	assert.Equal(t, []string{"mall", "zillow"}, Names())

	_, err = Lookup("iris")
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestDSN(t *testing.T) {
	creds := Credentials{Host: "db.example", User: "analyst", Password: "s3cret", Dir: "/data"}

	dsn, err := DSN("mysql", creds, "zillow")
	require.NoError(t, err)
	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "analyst", cfg.User)
	assert.Equal(t, "s3cret", cfg.Passwd)
	assert.Equal(t, "db.example:3306", cfg.Addr)
	assert.Equal(t, "zillow", cfg.DBName)

	dsn, err = DSN("postgresql", Credentials{Host: "db.example", Port: 6543, User: "analyst", Password: "pw"}, "mall_customers")
	require.NoError(t, err)
	assert.Equal(t, "postgres://analyst:pw@db.example:6543/mall_customers?sslmode=disable", dsn)

	dsn, err = DSN("sqlite", creds, "zillow")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "zillow.db"), dsn)

	_, err = DSN("oracle", creds, "zillow")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestQueryTableCoercesByColumnType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := mock.NewRowsWithColumnDefinition(
		mock.NewColumn("parcelid").OfType("INT", int64(0)),
		mock.NewColumn("bedrooms").OfType("DECIMAL", []byte{}),
		mock.NewColumn("propertyzoningdesc").OfType("VARCHAR", []byte{}),
		mock.NewColumn("transactiondate").OfType("DATE", []byte{}),
		mock.NewColumn("poolcnt").OfType("DOUBLE", float64(0)),
	).
		AddRow(int64(11), []byte("3.0"), []byte("0100"), []byte("2017-01-01"), nil).
		AddRow(int64(12), []byte(""), []byte("LAR1"), []byte("2017-02-11"), 1.0)
	mock.ExpectQuery("SELECT parcelid").WillReturnRows(rows)

	tbl, err := QueryTable(context.Background(), db, "SELECT parcelid FROM properties_2017")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []string{"parcelid", "bedrooms", "propertyzoningdesc", "transactiondate", "poolcnt"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())
	first := tbl.Row(0)
	assert.True(t, first.Get("parcelid").Equal(table.Num(11)))
	assert.True(t, first.Get("bedrooms").Equal(table.Num(3)))
	assert.True(t, first.Get("propertyzoningdesc").Equal(table.Str("0100")), "character columns keep their text")
	assert.True(t, first.Get("transactiondate").Equal(table.Str("2017-01-01")))
	assert.True(t, first.Get("poolcnt").IsNull())
	assert.True(t, tbl.Row(1).Get("bedrooms").IsNull(), "empty numeric text is null")
}

func TestQueryTableError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT").WillReturnError(boom)
	_, err = QueryTable(context.Background(), db, "SELECT 1")
	assert.ErrorIs(t, err, boom)
}

func TestLoaderQueriesOnceThenReadsCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"customer_id", "gender", "age", "annual_income", "spending_score"}).
		AddRow(1, "Male", 19, 15, 39).
		AddRow(2, "Male", 21, 15, 81).
		AddRow(3, "Female", 20, 16, 6)
	mock.ExpectQuery("SELECT \\* FROM customers").WillReturnRows(rows)
	mock.ExpectClose()

	dir := t.TempDir()
	l := &Loader{Driver: "mysql", CacheDir: dir, Open: mockOpener(db)}

	fresh, origin, err := l.Load(context.Background(), Mall)
	require.NoError(t, err)
	assert.Equal(t, OriginDatabase, origin)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.FileExists(t, filepath.Join(dir, "mall_customers.csv"))

	l.Open = failOpener(t)
	cached, origin, err := l.Load(context.Background(), Mall)
	require.NoError(t, err)
	assert.Equal(t, OriginCache, origin)
	assert.Equal(t, fresh.Columns(), cached.Columns())
	require.Equal(t, fresh.Len(), cached.Len())
	for i := 0; i < fresh.Len(); i++ {
		for j, v := range fresh.Row(i).Values() {
			assert.True(t, v.Equal(cached.Row(i).At(j)), "row %d col %d", i, j)
		}
	}
}

func TestLoaderDedupesKeepingLast(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"parcelid", "logerror", "transactiondate"}).
		AddRow(100, 0.01, "2017-01-03").
		AddRow(200, -0.2, "2017-03-01").
		AddRow(100, 0.05, "2017-08-20")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)
	mock.ExpectClose()

	ds := Dataset{Name: "sales", Database: "zillow", Query: "SELECT parcelid, logerror, transactiondate FROM predictions_2017", CacheFile: "sales.csv", DedupeKey: "parcelid"}
	l := &Loader{Driver: "postgres", CacheDir: t.TempDir(), Open: mockOpener(db)}
	tbl, err := l.Refresh(context.Background(), ds)
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	d, _ := tbl.Row(1).Get("transactiondate").Text()
	assert.Equal(t, "2017-08-20", d)
}

func TestLoaderQueryFailureWritesNoCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("access denied"))
	mock.ExpectClose()

	dir := t.TempDir()
	l := &Loader{Driver: "mysql", CacheDir: dir, Open: mockOpener(db)}
	_, _, err = l.Load(context.Background(), Mall)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mall")

	_, statErr := os.Stat(filepath.Join(dir, Mall.CacheFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoaderRejectsUnknownDriver(t *testing.T) {
	l := &Loader{Driver: "oracle", CacheDir: t.TempDir(), Open: failOpener(t)}
	_, _, err := l.Load(context.Background(), Mall)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
