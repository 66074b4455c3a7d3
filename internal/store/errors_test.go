package store_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskhub/taskhub-api/internal/store"
)

func TestEntitySpecificErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		isNotFound  bool
		isDuplicate bool
	}{
		{"user not found", store.ErrUserNotFound, true, false},
		{"task not found", store.ErrTaskNotFound, true, false},
		{"category not found", store.ErrCategoryNotFound, true, false},
		{"team not found", store.ErrTeamNotFound, true, false},
		{"notification not found", store.ErrNotificationNotFound, true, false},
		{"email exists", store.ErrEmailExists, false, true},
		{"member exists", store.ErrMemberExists, false, true},
		{"generic not found", store.ErrNotFound, true, false},
		{"generic duplicate", store.ErrDuplicate, false, true},
		{"unrelated", errors.New("boom"), false, false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.isNotFound, store.IsNotFoundError(tc.err))
			assert.Equal(t, tc.isDuplicate, store.IsDuplicateError(tc.err))
		})
	}
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	cause := store.ErrEmailExists
	err := store.NewStoreError("user", "create", "saving user", cause)

	assert.Contains(t, err.Error(), "create operation on user failed")
	assert.Contains(t, err.Error(), "saving user")

	// Wrapped errors stay reachable through errors.Is.
	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.True(t, store.IsDuplicateError(err))

	// Without a cause the message omits the wrapped error.
	bare := store.NewStoreError("task", "delete", "gone", nil)
	assert.Equal(t, "delete operation on task failed: gone", bare.Error())
	assert.NoError(t, bare.Unwrap())
}
