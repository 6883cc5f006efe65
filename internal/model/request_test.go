package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "approved", "rejected", "completed"} {
		st, ok := ParseStatus(s)
		require.True(t, ok, s)
		assert.Equal(t, RequestStatus(s), st)
	}
	for _, s := range []string{"", "PENDING", "done", "cancelled", "approved "} {
		_, ok := ParseStatus(s)
		assert.False(t, ok, s)
	}
}

func TestTransitionTable(t *testing.T) {
	all := []RequestStatus{StatusPending, StatusApproved, StatusRejected, StatusCompleted}
	allowed := map[[2]RequestStatus]bool{
		{StatusPending, StatusApproved}:   true,
		{StatusPending, StatusRejected}:   true,
		{StatusApproved, StatusCompleted}: true,
	}
	for _, from := range all {
		for _, to := range all {
			got := from.CanTransition(to)
			assert.Equal(t, allowed[[2]RequestStatus{from, to}], got,
				"%s -> %s", from, to)
		}
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, RequestStatus("bogus").Terminal())
}

func TestAllocationDelta(t *testing.T) {
	assert.Equal(t, -1, AllocationDelta(StatusPending, StatusApproved))
	assert.Equal(t, +1, AllocationDelta(StatusApproved, StatusCompleted))
	assert.Equal(t, 0, AllocationDelta(StatusPending, StatusRejected))
	assert.Equal(t, 0, AllocationDelta(StatusPending, StatusCompleted))
	assert.Equal(t, 0, AllocationDelta(StatusApproved, StatusRejected))
}

// A full borrow cycle on a two-copy title: request, approve, complete.
// The available count dips to 1 at approval and returns to 2 on completion.
func TestBorrowCycleCounts(t *testing.T) {
	b := Book{TotalCount: 2, AvailableCount: 2}
	status := StatusPending

	require.True(t, b.Available())

	require.True(t, status.CanTransition(StatusApproved))
	b.AvailableCount += AllocationDelta(status, StatusApproved)
	status = StatusApproved
	assert.Equal(t, 1, b.AvailableCount)
	assert.Equal(t, 1, b.Allocated())

	require.True(t, status.CanTransition(StatusCompleted))
	b.AvailableCount += AllocationDelta(status, StatusCompleted)
	status = StatusCompleted
	assert.Equal(t, 2, b.AvailableCount)
	assert.Equal(t, 0, b.Allocated())
	assert.True(t, status.Terminal())
}
