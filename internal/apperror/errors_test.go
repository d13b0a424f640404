package apperror

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	notFound := ErrEventNotAvailable.WithKind(KindNotFound)

	assert.True(t, errors.Is(notFound, ErrEventNotAvailable))
	assert.Equal(t, KindNotFound, notFound.Kind)
	assert.Equal(t, KindBusinessRule, ErrEventNotAvailable.Kind, "original must not be mutated")

	wrapped := fmt.Errorf("create reservation: %w", ErrCapacityExceeded)
	assert.True(t, errors.Is(wrapped, ErrCapacityExceeded))
	assert.False(t, errors.Is(wrapped, ErrDuplicateReservation))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(ErrEmailTaken))
	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("x: %w", Validation("bad"))))
	assert.Equal(t, KindInternal, KindOf(sql.ErrConnDone))
}

func TestInternalUnwrap(t *testing.T) {
	err := Internal("database error", sql.ErrConnDone)

	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Contains(t, err.Error(), "database error")
}
