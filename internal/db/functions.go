package db

import (
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

// SQLite's LOWER and LIKE only fold ASCII letters. casefold(x) applies full
// Unicode case folding so listing search and tag lookup match "Étude" and
// "étude" alike. Patterns compared against it must go through foldCase too.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1, casefoldSQL)
}

func casefoldSQL(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return foldCase(v), nil
	case []byte:
		return foldCase(string(v)), nil
	default:
		return nil, fmt.Errorf("casefold: unsupported argument type %T", v)
	}
}

// foldCase returns the Unicode case folding of s. A Caser keeps state, so
// each call builds its own.
func foldCase(s string) string {
	return cases.Fold().String(s)
}
