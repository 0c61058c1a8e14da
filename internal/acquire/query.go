package acquire

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/KaramelBytes/wrangle-cli/internal/table"
)

// QueryTable runs query and collects every row into a Table. Numeric column
// types are coerced to numbers, character types stay strings, and anything
// else is inferred from its text the way a CSV cell would be.
func QueryTable(ctx context.Context, db *sql.DB, query string) (*table.Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	names := make([]string, len(types))
	dbTypes := make([]string, len(types))
	for i, ct := range types {
		names[i] = ct.Name()
		dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
	}
	t, err := table.New(names...)
	if err != nil {
		return nil, err
	}

	raw := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", t.Len(), err)
		}
		vals := make([]table.Value, len(raw))
		for i, v := range raw {
			cell, err := cellValue(v, dbTypes[i])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", t.Len(), names[i], err)
			}
			vals[i] = cell
		}
		if err := t.AppendRow(vals...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return t, nil
}

func cellValue(v any, dbType string) (table.Value, error) {
	switch x := v.(type) {
	case nil:
		return table.Null(), nil
	case bool:
		return table.Bool(x), nil
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return table.Str(x.Format(time.DateOnly)), nil
		}
		return table.Str(x.Format(time.DateTime)), nil
	case []byte:
		return textValue(string(x), dbType)
	case string:
		return textValue(x, dbType)
	default:
		f, err := cast.ToFloat64E(x)
		if err != nil {
			return table.Str(cast.ToString(x)), nil
		}
		return table.Num(f), nil
	}
}

func textValue(s, dbType string) (table.Value, error) {
	switch {
	case isCharType(dbType):
		return table.Str(s), nil
	case isNumericType(dbType):
		if s == "" {
			return table.Null(), nil
		}
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return table.Value{}, fmt.Errorf("%s value %q: %w", dbType, s, err)
		}
		return table.Num(f), nil
	default:
		return table.ParseValue(s), nil
	}
}

func isCharType(t string) bool {
	return strings.Contains(t, "CHAR") || strings.Contains(t, "TEXT") || t == "ENUM" || t == "SET"
}

func isNumericType(t string) bool {
	if strings.Contains(t, "INT") {
		return true
	}
	switch t {
	case "DECIMAL", "NUMERIC", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "REAL", "DOUBLE PRECISION":
		return true
	}
	return false
}
