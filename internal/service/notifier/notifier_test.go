package notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyBrokerURLDisablesPublishing(t *testing.T) {
	// No broker configured: every notice is dropped without dialing
	// anything, and callers see no error.
	n := New("")
	ctx := context.Background()

	assert.NoError(t, n.HoldReminder(ctx, 7, 10, 41, 3, 20))
	assert.NoError(t, n.HoldReleased(ctx, 7, 10, 41, 3))
	assert.NoError(t, n.BookingConfirmed(ctx, 7, "ada@example.com", 10, "ref-001", []string{"K9XQ2MZ4"}, 4500))
}
