package utils

import (
	// Go Internal Packages
	"sort"
	"strconv"
	"strings"

	// External Packages
	"github.com/google/uuid"
)

func JoinInt32Slice(ints []int32) string {
	strs := make([]string, len(ints))
	for i, v := range ints {
		strs[i] = strconv.FormatInt(int64(v), 10)
	}
	return strings.Join(strs, ",")
}

// DescribeAssignment renders a topic to partitions map as "topic:0,1 other:2".
func DescribeAssignment(assigned map[string][]int32) string {
	topics := make([]string, 0, len(assigned))
	for t := range assigned {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	parts := make([]string, 0, len(topics))
	for _, t := range topics {
		parts = append(parts, t+":"+JoinInt32Slice(assigned[t]))
	}
	return strings.Join(parts, " ")
}

// NewID returns a random UUID string used for txn ids and account numbers.
func NewID() string {
	return uuid.NewString()
}
