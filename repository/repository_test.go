package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "invitations_one_pending_per_user"}

	assert.True(t, uniqueViolation(dup, ""))
	assert.True(t, uniqueViolation(dup, "invitations_one_pending_per_user"))
	assert.False(t, uniqueViolation(dup, "some_other_constraint"))

	wrapped := fmt.Errorf("insert failed: %w", dup)
	assert.True(t, uniqueViolation(wrapped, "invitations_one_pending_per_user"))

	assert.False(t, uniqueViolation(&pq.Error{Code: "23503"}, ""))
	assert.False(t, uniqueViolation(errors.New("plain"), ""))
	assert.False(t, uniqueViolation(nil, ""))
}
