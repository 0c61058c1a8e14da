package parser

import (
	"bytes"
	"strings"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvParser) Parse(content []byte, opt Options) (*table.Table, error) {
	return table.ReadCSV(bytes.NewReader(content), table.CSVOptions{Delimiter: opt.Delimiter, MaxRows: opt.MaxRows})
}
