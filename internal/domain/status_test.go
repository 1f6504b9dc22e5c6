package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []Status{StatusPending, StatusPaid, StatusShipped, StatusCancelled, StatusReturned}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := map[[2]Status]bool{
		{StatusPending, StatusPaid}:      true,
		{StatusPending, StatusCancelled}: true,
		{StatusPaid, StatusShipped}:      true,
		{StatusPaid, StatusCancelled}:    true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			assert.Equal(t, allowed[[2]Status{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusPaid.Terminal())
	assert.True(t, StatusShipped.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusReturned.Terminal())
	assert.False(t, Status("Completed").Terminal())
	assert.False(t, Status("Completed").Valid())
}

func TestStatus_Flags(t *testing.T) {
	t.Parallel()

	for _, s := range allStatuses {
		assert.Equal(t, s == StatusPending, s.CartMutable(), s)
		assert.Equal(t, s == StatusPaid || s == StatusShipped, s.HoldsStock(), s)
	}
}

func TestPersistence(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Persistence("op", nil))

	wrapped := fmt.Errorf("product: %w", ErrNotFound)
	assert.Same(t, wrapped, Persistence("op", wrapped))

	raw := errors.New("disk full")
	err := Persistence("save order", raw)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, raw)
	assert.Contains(t, err.Error(), "save order")
}
