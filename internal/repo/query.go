package repo

import (
	"database/sql/driver"
	"errors"
	"strings"

	gosqlite "github.com/glebarez/go-sqlite"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// foldLower is registered with the sqlite driver. SQLite's built-in LOWER and LIKE fold ASCII only.
const foldLower = "fold_lower"

func init() {
	gosqlite.MustRegisterDeterministicScalarFunction(foldLower, 1, func(_ *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// containsAny builds a case-insensitive substring match of term against any of cols.
// Postgres uses ILIKE; sqlite compares fold_lower(col) with a lower-cased pattern.
func containsAny(db *gorm.DB, term string, cols ...string) (string, []any) {
	postgres := db.Dialector.Name() == "postgres"
	pattern := likePattern(term)
	if !postgres {
		pattern = strings.ToLower(pattern)
	}

	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		if postgres {
			parts = append(parts, col+" ILIKE ? ESCAPE '\\'")
		} else {
			parts = append(parts, foldLower+"("+col+") LIKE ? ESCAPE '\\'")
		}
		args = append(args, pattern)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

type Page struct {
	Offset int
	Limit  int
}

// IsUniqueViolation reports a unique-constraint failure, translated or raw from the driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value")
}
