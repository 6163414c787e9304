package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"translated duplicate key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), ErrConflict},
		{"sqlite constraint message", errors.New("UNIQUE constraint failed: bookings.email, bookings.preferred_date"), ErrConflict},
		{"error merely mentioning unique", errors.New("could not reach unique replica set"), ErrUnavailable},
		{"duplicate in free text", errors.New("duplicate connection attempt refused"), ErrUnavailable},
		{"already a service error", fmt.Errorf("booking 3: %w", ErrForbidden), ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate("op", tt.err), tt.want)
		})
	}

	assert.NoError(t, translate("op", nil))
}
