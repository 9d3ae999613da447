package repository

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation reports whether err is a postgres unique-constraint
// violation, optionally matching a specific constraint name. Uniqueness
// guards (single pending invitation, one collaborator row per user) live
// in the schema, so concurrent writers race in the database rather than
// in application code.
func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
