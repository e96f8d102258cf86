package domain

import (
	"encoding/json"
	"testing"
)

func TestBatchProjectKnownAssetIDsSkipsLists(t *testing.T) {
	p := &BatchProject{AssetLibrary: map[string]json.RawMessage{
		"characters": json.RawMessage(`{"hero":"CHAR_01","villain":"CHAR_02"}`),
		"locations":  json.RawMessage(`{"lab":"LOC_LAB"}`),
		"notes":      json.RawMessage(`["keep lighting cold"]`),
	}}
	ids := p.KnownAssetIDs()
	if len(ids) != 3 {
		t.Fatalf("len(ids) = %d, want 3: %v", len(ids), ids)
	}
	for _, id := range []string{"CHAR_01", "CHAR_02", "LOC_LAB"} {
		if _, ok := ids[id]; !ok {
			t.Fatalf("missing %q", id)
		}
	}
}

func TestBatchProjectApprovalGateActive(t *testing.T) {
	p := &BatchProject{}
	p.Project.ProductionRules.ApprovalGate = "none"
	if p.ApprovalGateActive() {
		t.Fatal("gate should be inactive for none")
	}
	p.Project.ProductionRules.ApprovalGate = "REQUIRED: all outputs reviewed"
	if !p.ApprovalGateActive() {
		t.Fatal("gate should be active for a rule description")
	}
}

func TestBatchProjectCloneIsDeep(t *testing.T) {
	v := 2
	p := &BatchProject{
		Project:    ProjectInfo{ProjectID: "p1"},
		ImageTasks: []ImageTask{{TaskID: "t1", Refs: []string{"A"}, Variants: &v, Approval: Approval{Status: ApprovalApproved}}},
	}
	c := p.Clone()
	c.ImageTasks[0].Approval.Status = ApprovalRejected
	c.ImageTasks[0].Refs[0] = "B"
	*c.ImageTasks[0].Variants = 5
	if p.ImageTasks[0].Approval.Status != ApprovalApproved {
		t.Fatalf("original approval mutated: %s", p.ImageTasks[0].Approval.Status)
	}
	if p.ImageTasks[0].Refs[0] != "A" || *p.ImageTasks[0].Variants != 2 {
		t.Fatal("original task slices mutated")
	}
}

func TestResolutionAcceptsTokenAndPair(t *testing.T) {
	var out OutputConfig
	if err := json.Unmarshal([]byte(`{"resolution_px":"2K"}`), &out); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}
	if out.Resolution != "2K" {
		t.Fatalf("Resolution = %q, want 2K", out.Resolution)
	}
	if err := json.Unmarshal([]byte(`{"resolution_px":[1920,1080]}`), &out); err != nil {
		t.Fatalf("unmarshal pair: %v", err)
	}
	if out.Resolution != "1920x1080" {
		t.Fatalf("Resolution = %q, want 1920x1080", out.Resolution)
	}
}
