package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusPending, StatusConfirmed, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded,
	} {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("pending").Valid(), "statuses are case sensitive")
	assert.False(t, Status("LOST").Valid())
}

func TestStatusReleased(t *testing.T) {
	assert.True(t, StatusCancelled.Released())
	assert.True(t, StatusRefunded.Released())
	assert.False(t, StatusPending.Released())
	assert.False(t, StatusDelivered.Released())
}

func TestStatusCanTransitionTo(t *testing.T) {
	active := []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped}

	t.Run("active orders move freely between non-terminal states", func(t *testing.T) {
		for _, from := range active {
			for _, to := range []Status{StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered} {
				if from == to {
					continue
				}
				assert.True(t, from.CanTransitionTo(to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("nothing re-enters pending", func(t *testing.T) {
		for _, from := range []Status{StatusConfirmed, StatusDelivered, StatusCancelled, StatusRefunded} {
			assert.False(t, from.CanTransitionTo(StatusPending), "%s -> PENDING", from)
		}
	})

	t.Run("cancellation requires an active order", func(t *testing.T) {
		for _, from := range active {
			assert.True(t, from.CanTransitionTo(StatusCancelled), "%s -> CANCELLED", from)
		}
		assert.False(t, StatusDelivered.CanTransitionTo(StatusCancelled))
		assert.False(t, StatusRefunded.CanTransitionTo(StatusCancelled))
	})

	t.Run("refund is reachable from everywhere and terminal", func(t *testing.T) {
		for _, from := range []Status{StatusPending, StatusDelivered, StatusCancelled} {
			assert.True(t, from.CanTransitionTo(StatusRefunded), "%s -> REFUNDED", from)
		}
		for _, to := range []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusRefunded} {
			assert.False(t, StatusRefunded.CanTransitionTo(to), "REFUNDED -> %s", to)
		}
	})

	t.Run("same status is never a transition", func(t *testing.T) {
		for _, s := range []Status{StatusPending, StatusCancelled, StatusRefunded} {
			assert.False(t, s.CanTransitionTo(s))
		}
	})
}
