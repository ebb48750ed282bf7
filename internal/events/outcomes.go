package events

import (
	"strconv"
	"strings"
)

// enumerateOutcomeLabels generates the fixed, ordered set of outcome
// labels spec.md §4.D describes: every ordered k-tuple drawn from N
// entry slots (1-based). The order is deterministic so that the same
// (n, k) always produces the same label set in the same order, which
// matters because the announcement commits to this exact ordering
// (spec.md §3: "The label set and its order are fixed at creation").
//
// A label is the comma-joined slot indices of the winning tuple in
// rank order, e.g. "2,4,1" for a 3-of-N event whose first place is the
// entry submitted second, second place the entry submitted fourth, and
// third place the entry submitted first.
func enumerateOutcomeLabels(n, k int) []string {
	if n <= 0 || k <= 0 || k > n {
		return nil
	}
	used := make([]bool, n+1)
	tuple := make([]int, 0, k)
	var labels []string

	var walk func()
	walk = func() {
		if len(tuple) == k {
			parts := make([]string, k)
			for i, v := range tuple {
				parts[i] = strconv.Itoa(v)
			}
			labels = append(labels, strings.Join(parts, ","))
			return
		}
		for slot := 1; slot <= n; slot++ {
			if used[slot] {
				continue
			}
			used[slot] = true
			tuple = append(tuple, slot)
			walk()
			tuple = tuple[:len(tuple)-1]
			used[slot] = false
		}
	}
	walk()
	return labels
}

// labelForSlots renders the outcome label for a ranked tuple of entry
// slot indices, in the same format enumerateOutcomeLabels produces.
func labelForSlots(slots []int) string {
	parts := make([]string, len(slots))
	for i, v := range slots {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
