// Package parser turns data files into tables, picking a reader by extension.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// ErrUnsupported indicates a file format no registered parser handles.
var ErrUnsupported = errors.New("unsupported data format")

// Options tune how a file is read.
type Options struct {
	// Delimiter for delimited text; 0 picks one from the extension.
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Sheet selects a workbook sheet by name; SheetIndex (1-based) is used
	// when Sheet is empty.
	Sheet      string
	SheetIndex int
}

// Parser defines a tabular file parser implementation.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte, opt Options) (*table.Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ParseFile selects a parser based on filename and returns the parsed table.
func ParseFile(path string, opt Options) (*table.Table, error) {
	p := lookup(path)
	if p == nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = table.SniffDelimiter(path)
	}
	t, err := p.Parse(data, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// Supported reports whether some parser handles path.
func Supported(path string) bool { return lookup(path) != nil }

func lookup(path string) Parser {
	for _, p := range registry {
		if p.CanParse(path) {
			return p
		}
	}
	return nil
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}
