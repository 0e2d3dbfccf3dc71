package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/session-auth/internal/apperror"
)

func TestNewID_IsParseable(t *testing.T) {
	id := NewID()

	got, err := ParseID(id)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Len(t, id, 20)
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestParseID_Invalid(t *testing.T) {
	for _, id := range []string{"", "banana", "601698d6d89d467e68903deb", "9m4e2mr0ui3e8a215n4g!"} {
		t.Run(id, func(t *testing.T) {
			_, err := ParseID(id)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrInvalidID))
		})
	}
}
