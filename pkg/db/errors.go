package db

import "strings"

// IsUniqueViolation reports whether err is a unique constraint violation.
// Optional constraint names narrow the match to specific indexes. Both the
// Postgres and SQLite (tests) message shapes are recognized.
func IsUniqueViolation(err error, constraints ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	named := false
	for _, constraint := range constraints {
		if constraint == "" {
			continue
		}
		named = true
		if strings.Contains(msg, constraint) {
			return true
		}
	}
	return !named
}
