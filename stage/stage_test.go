package stage

import "testing"

func TestTable_StageOf_DefaultsToZero(t *testing.T) {
	tbl := NewTable()
	tbl.Assign("worker", 1)

	if got := tbl.StageOf("worker"); got != 1 {
		t.Errorf("StageOf(worker) = %d, want 1", got)
	}
	if got := tbl.StageOf("unassigned"); got != 0 {
		t.Errorf("StageOf(unassigned) = %d, want 0", got)
	}
}

func TestTable_Stages_GroupsAndSorts(t *testing.T) {
	tbl := NewTable()
	tbl.Assign("b0", 0)
	tbl.Assign("a1", 1)
	tbl.Assign("b1", 1)

	nums, byStage := tbl.Stages([]string{"b0", "a1", "b1", "c0"})

	if len(nums) != 2 || nums[0] != 0 || nums[1] != 1 {
		t.Fatalf("Stages() nums = %v, want [0 1]", nums)
	}

	stage0 := byStage[0]
	if len(stage0) != 2 || stage0[0] != "b0" || stage0[1] != "c0" {
		t.Errorf("byStage[0] = %v, want [b0 c0] (sorted, c0 defaults to stage 0)", stage0)
	}

	stage1 := byStage[1]
	if len(stage1) != 2 || stage1[0] != "a1" || stage1[1] != "b1" {
		t.Errorf("byStage[1] = %v, want [a1 b1]", stage1)
	}
}

func TestLoadTableYAML(t *testing.T) {
	doc := []byte(`
db: 0
cache: 0
worker: 1
`)
	tbl, err := LoadTableYAML(doc)
	if err != nil {
		t.Fatalf("LoadTableYAML() error = %v", err)
	}
	if got := tbl.StageOf("worker"); got != 1 {
		t.Errorf("StageOf(worker) = %d, want 1", got)
	}
}

func TestLoadTableYAML_NegativeRejected(t *testing.T) {
	doc := []byte(`db: -1`)
	if _, err := LoadTableYAML(doc); err == nil {
		t.Fatalf("LoadTableYAML() error = nil, want error for negative stage")
	}
}
