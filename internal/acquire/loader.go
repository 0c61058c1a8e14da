package acquire

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/wrangle-cli/internal/prepare"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/utils"
)

// Origin tells where a loaded table came from.
type Origin string

const (
	OriginCache    Origin = "cache"
	OriginDatabase Origin = "database"
)

// Opener opens a database handle; sql.Open satisfies it.
type Opener func(driver, dsn string) (*sql.DB, error)

// Loader reads datasets from the CSV cache, falling back to the database.
type Loader struct {
	Driver      string
	Credentials Credentials
	CacheDir    string
	// Open defaults to sql.Open.
	Open Opener
	Log  logrus.FieldLogger
}

// CachePath is the cache file for ds.
func (l *Loader) CachePath(ds Dataset) string {
	return filepath.Join(l.CacheDir, ds.CacheFile)
}

// Load returns the cached table for ds if one exists. Otherwise it queries
// the database, writes the cache, and returns the fresh table.
func (l *Loader) Load(ctx context.Context, ds Dataset) (*table.Table, Origin, error) {
	path := l.CachePath(ds)
	ok, err := utils.FileExists(path)
	if err != nil {
		return nil, "", fmt.Errorf("check cache: %w", err)
	}
	if ok {
		t, err := table.ReadCSVFile(path, table.CSVOptions{})
		if err != nil {
			return nil, "", fmt.Errorf("read cache %s: %w", path, err)
		}
		l.log().WithFields(logrus.Fields{"dataset": ds.Name, "path": path, "rows": t.Len()}).Debug("loaded from cache")
		return t, OriginCache, nil
	}
	t, err := l.Refresh(ctx, ds)
	if err != nil {
		return nil, "", err
	}
	return t, OriginDatabase, nil
}

// Refresh queries the database for ds and overwrites its cache file.
func (l *Loader) Refresh(ctx context.Context, ds Dataset) (*table.Table, error) {
	driver, err := NormalizeDriver(l.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := DSN(driver, l.Credentials, ds.Database)
	if err != nil {
		return nil, err
	}
	open := l.Open
	if open == nil {
		open = sql.Open
	}
	db, err := open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database %q: %w", driver, ds.Database, err)
	}
	defer db.Close()

	l.log().WithFields(logrus.Fields{"dataset": ds.Name, "driver": driver, "database": ds.Database}).Debug("querying")
	t, err := QueryTable(ctx, db, ds.Query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ds.Name, err)
	}
	if ds.DedupeKey != "" {
		before := t.Len()
		if t, err = prepare.DropDuplicates(t, ds.DedupeKey, true); err != nil {
			return nil, fmt.Errorf("%s: dedupe: %w", ds.Name, err)
		}
		l.log().WithFields(logrus.Fields{"dataset": ds.Name, "key": ds.DedupeKey, "dropped": before - t.Len()}).Debug("deduplicated")
	}

	path := l.CachePath(ds)
	if err := table.WriteCSVFile(path, t); err != nil {
		return nil, fmt.Errorf("write cache: %w", err)
	}
	l.log().WithFields(logrus.Fields{"dataset": ds.Name, "path": path, "rows": t.Len()}).Info("cached query result")
	return t, nil
}

func (l *Loader) log() logrus.FieldLogger {
	if l.Log != nil {
		return l.Log
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return quiet
}
