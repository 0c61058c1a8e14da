// Package split partitions a table into train, validate and test sets.
package split

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

var (
	// ErrInvalidSize is returned for a holdout fraction outside (0, 1).
	ErrInvalidSize = errors.New("split size must be within (0, 1)")
	// ErrTooFewRows is returned when a split would leave no training rows.
	ErrTooFewRows = errors.New("too few rows to split")
)

// Options holds the two holdout fractions and the shuffle seed.
type Options struct {
	// TestSize is the share of all rows held out as test.
	TestSize float64
	// ValidateSize is the share of the remaining rows held out as validate.
	ValidateSize float64
	Seed         int64
}

// DefaultOptions gives roughly 60/20/20 with the seed the notebooks used.
func DefaultOptions() Options {
	return Options{TestSize: 0.2, ValidateSize: 0.25, Seed: 333}
}

// Split shuffles t with the seed and performs two holdouts: test first, then
// validate out of what is left. Holdout sizes are rounded up.
func Split(t *table.Table, opt Options) (train, validate, test *table.Table, err error) {
	for _, s := range []float64{opt.TestSize, opt.ValidateSize} {
		if !(s > 0 && s < 1) {
			return nil, nil, nil, fmt.Errorf("%v: %w", s, ErrInvalidSize)
		}
	}
	rng := rand.New(rand.NewSource(opt.Seed))

	rest, test, err := holdout(t, opt.TestSize, rng)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("test holdout: %w", err)
	}
	train, validate, err = holdout(rest, opt.ValidateSize, rng)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("validate holdout: %w", err)
	}
	return train, validate, test, nil
}

// holdout returns (kept, held) after a seeded permutation of t's rows.
func holdout(t *table.Table, size float64, rng *rand.Rand) (*table.Table, *table.Table, error) {
	n := t.Len()
	nHeld := int(math.Ceil(size * float64(n)))
	if n-nHeld < 1 {
		return nil, nil, fmt.Errorf("%d rows, %d held out: %w", n, nHeld, ErrTooFewRows)
	}
	perm := rng.Perm(n)
	return t.Take(perm[nHeld:]), t.Take(perm[:nHeld]), nil
}

// Sizes reports the row counts Split would produce for n rows.
func Sizes(n int, opt Options) (train, validate, test int) {
	test = int(math.Ceil(opt.TestSize * float64(n)))
	rest := n - test
	validate = int(math.Ceil(opt.ValidateSize * float64(rest)))
	return rest - validate, validate, test
}
