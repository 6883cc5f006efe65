package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeAvailable(t *testing.T) {
	tests := []struct {
		name                            string
		oldTotal, oldAvailable, newTotal int
		want                            int
	}{
		{"no allocation, grow", 3, 3, 5, 5},
		{"no allocation, shrink", 3, 3, 2, 2},
		{"shrink below allocated clamps to zero", 5, 1, 3, 0},
		{"shrink preserves allocation", 5, 3, 3, 1},
		{"grow preserves allocation", 2, 0, 4, 2},
		{"shrink to zero", 4, 2, 0, 0},
		{"inconsistent input clamps allocation", 2, 5, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecomputeAvailable(tt.oldTotal, tt.oldAvailable, tt.newTotal)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, tt.newTotal)
		})
	}
}

func TestAllocatedNeverNegative(t *testing.T) {
	assert.Equal(t, 2, Book{TotalCount: 5, AvailableCount: 3}.Allocated())
	assert.Equal(t, 0, Book{TotalCount: 2, AvailableCount: 5}.Allocated())
}

func TestAvailable(t *testing.T) {
	assert.True(t, Book{AvailableCount: 1}.Available())
	assert.False(t, Book{AvailableCount: 0}.Available())
}
