package utils

import (
	// Go Internal Packages
	"testing"

	// External Packages
	"github.com/stretchr/testify/assert"
)

func TestDescribeAssignment(t *testing.T) {
	got := DescribeAssignment(map[string][]int32{
		"update-txn-sender": {0, 2},
		"bank-to-person":    {1},
	})
	assert.Equal(t, "bank-to-person:1 update-txn-sender:0,2", got)
	assert.Empty(t, DescribeAssignment(nil))
}

func TestNewIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
	assert.Len(t, NewID(), 36)
}
