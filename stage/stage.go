// Package stage implements the StageTable used by Staged mode: a partial
// map from signal name to a non-negative stage number, grounded on the same
// map-based, read-only-after-construction style as package graph.
package stage

import "sort"

// Table is a partial mapping signalName -> stageNumber. Signals with no
// entry belong to stage 0.
type Table struct {
	stages map[string]int
}

// NewTable creates an empty Table; every signal defaults to stage 0 until
// assigned otherwise.
func NewTable() *Table {
	return &Table{stages: make(map[string]int)}
}

// Assign places a signal in a stage. Stage numbers must be >= 0.
func (t *Table) Assign(signalName string, stage int) *Table {
	t.stages[signalName] = stage
	return t
}

// StageOf returns the stage number for a signal, defaulting to 0 when
// unassigned.
func (t *Table) StageOf(signalName string) int {
	if n, ok := t.stages[signalName]; ok {
		return n
	}
	return 0
}

// Stages groups every name in names by its stage number and returns the
// stage numbers in ascending order along with the (lexicographically
// sorted, for determinism) signal names belonging to each.
func (t *Table) Stages(names []string) ([]int, map[int][]string) {
	byStage := make(map[int][]string)
	for _, name := range names {
		n := t.StageOf(name)
		byStage[n] = append(byStage[n], name)
	}

	nums := make([]int, 0, len(byStage))
	for n, group := range byStage {
		sort.Strings(group)
		byStage[n] = group
		nums = append(nums, n)
	}
	sort.Ints(nums)

	return nums, byStage
}
