package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID("bkg")
	assert.True(t, strings.HasPrefix(id, "bkg_"))
	assert.Len(t, id, len("bkg_")+8)

	other := NewID("bkg")
	assert.NotEqual(t, id, other)
}

func TestCustomerIDFromEmail(t *testing.T) {
	a := CustomerIDFromEmail("Juan@Test.com")
	b := CustomerIDFromEmail("  juan@test.com ")
	c := CustomerIDFromEmail("maria@test.com")

	assert.Equal(t, a, b, "same mailbox must map to the same customer id")
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "cus_"))
	assert.Len(t, a, len("cus_")+12)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  time.Time
		fails bool
	}{
		{"zulu", "2026-03-02T09:00:00Z", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), false},
		{"explicit offset", "2026-03-02T09:00:00+00:00", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), false},
		{"non utc offset", "2026-03-02T09:00:00-03:00", time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), false},
		{"no seconds", "2026-03-02T09:00Z", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"garbage", "next tuesday", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if tt.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFound("service", "svc_123")
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "service", nf.Entity)
	assert.Equal(t, "svc_123", nf.ID)
	assert.Contains(t, err.Error(), "svc_123")
}

func TestValidationError(t *testing.T) {
	err := NewValidation("start_time", "must be in the future")
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "start_time")
	assert.False(t, IsValidation(ErrConflict))
}
