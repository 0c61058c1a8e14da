// Package run persists the manifest of a prepare run next to its outputs.
package run

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/wrangle-cli/internal/prepare"
	"github.com/KaramelBytes/wrangle-cli/internal/table"
	"github.com/KaramelBytes/wrangle-cli/internal/utils"
)

const manifestFileName = "run.json"

// Run records how a dataset was prepared and where the partitions went.
type Run struct {
	ID       string               `json:"id"`
	Dataset  string               `json:"dataset"`
	Origin   string               `json:"origin"`
	Source   string               `json:"source,omitempty"`
	Settings Settings             `json:"settings"`
	Steps    []prepare.StepRecord `json:"steps"`
	Outputs  []Output             `json:"outputs"`
	// Scaler holds the min/max learned on train, when partitions were scaled.
	Scaler    *prepare.MinMaxScaler `json:"scaler,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`

	// Not serialized: directory holding run.json and the partitions
	rootDir string `json:"-"`
}

// Settings are the knobs a run was executed with.
type Settings struct {
	OutlierMode        string   `json:"outlier_mode,omitempty"`
	OutlierColumns     []string `json:"outlier_columns,omitempty"`
	IQRMultiplier      float64  `json:"iqr_multiplier"`
	PropRequiredColumn float64  `json:"prop_required_column,omitempty"`
	PropRequiredRow    float64  `json:"prop_required_row,omitempty"`
	TestSize           float64  `json:"test_size"`
	ValidateSize       float64  `json:"validate_size"`
	Seed               int64    `json:"seed"`
}

// NewRun constructs an in-memory run under baseDir/<dataset>/<id>. Call Save() to persist.
func NewRun(dataset, baseDir string) *Run {
	id := uuid.NewString()
	now := time.Now()
	return &Run{
		ID:        id,
		Dataset:   dataset,
		CreatedAt: now,
		UpdatedAt: now,
		rootDir:   filepath.Join(baseDir, dataset, id),
	}
}

// LoadRun loads a run.json from the provided directory.
func LoadRun(dir string) (*Run, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("run not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read run: %w", err)
	}
	var r Run
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse run: %w", err)
	}
	r.rootDir = dir
	return &r, nil
}

// RootDir returns the on-disk run directory path.
func (r *Run) RootDir() string { return r.rootDir }

// Save writes run.json using atomic write.
func (r *Run) Save() error {
	if r.rootDir == "" {
		return errors.New("run directory not set")
	}
	if err := utils.EnsureDir(r.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	r.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(r.rootDir, manifestFileName), data)
}

// AddOutput writes t as <partition>.csv in the run directory and records it.
func (r *Run) AddOutput(partition string, t *table.Table) error {
	if r.rootDir == "" {
		return errors.New("run directory not set")
	}
	path := filepath.Join(r.rootDir, partition+".csv")
	if err := table.WriteCSVFile(path, t); err != nil {
		return fmt.Errorf("write %s: %w", partition, err)
	}
	rows, cols := t.Shape()
	r.Outputs = append(r.Outputs, Output{Partition: partition, Path: path, Rows: rows, Cols: cols})
	r.UpdatedAt = time.Now()
	return nil
}

// Output returns the recorded partition, if any.
func (r *Run) Output(partition string) (Output, bool) {
	for _, o := range r.Outputs {
		if o.Partition == partition {
			return o, true
		}
	}
	return Output{}, false
}

// ListRuns loads every run under baseDir, newest first. A non-empty dataset
// restricts the listing to that dataset.
func ListRuns(baseDir, dataset string) ([]*Run, error) {
	pattern := filepath.Join(baseDir, "*", "*", manifestFileName)
	if dataset != "" {
		pattern = filepath.Join(baseDir, dataset, "*", manifestFileName)
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	runs := make([]*Run, 0, len(matches))
	for _, m := range matches {
		r, err := LoadRun(filepath.Dir(m))
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}
