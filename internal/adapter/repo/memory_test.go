package repo

import (
	"context"
	"errors"
	"testing"

	"engine/internal/domain"
)

func project(id string, tasks ...string) *domain.BatchProject {
	p := &domain.BatchProject{Project: domain.ProjectInfo{ProjectID: id}}
	for _, t := range tasks {
		p.ImageTasks = append(p.ImageTasks, domain.ImageTask{TaskID: t, Approval: domain.Approval{Status: domain.ApprovalApproved}})
	}
	return p
}

func TestMemorySaveMarksCurrent(t *testing.T) {
	ctx := context.Background()
	r := NewProjectRepositoryMemory()
	if _, err := r.Current(ctx); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("empty repository Current err = %v", err)
	}
	for _, id := range []string{"a", "b", "a"} {
		if _, err := r.Save(ctx, project(id)); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}
	cur, err := r.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.ID() != "a" {
		t.Fatalf("current = %s, want a", cur.ID())
	}
	ids, _ := r.List(ctx)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("List = %v", ids)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewProjectRepositoryMemory()
	p := project("p1", "t1")
	if _, err := r.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	p.ImageTasks[0].Approval.Status = domain.ApprovalRejected

	got, err := r.Get(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ImageTasks[0].Approval.Status != domain.ApprovalApproved {
		t.Fatalf("stored project shares state with caller")
	}
	got.ImageTasks[0].Approval.Status = domain.ApprovalPendingReview
	again, _ := r.Get(ctx, "p1")
	if again.ImageTasks[0].Approval.Status != domain.ApprovalApproved {
		t.Fatalf("returned project shares state with repository")
	}
}

func TestMemoryUpdateKeepsCurrent(t *testing.T) {
	ctx := context.Background()
	r := NewProjectRepositoryMemory()
	_, _ = r.Save(ctx, project("a", "t1"))
	_, _ = r.Save(ctx, project("b"))

	a := project("a", "t1")
	a.ImageTasks[0].Approval.Status = domain.ApprovalPendingReview
	if err := r.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}
	cur, _ := r.Current(ctx)
	if cur.ID() != "b" {
		t.Fatalf("current = %s, want b", cur.ID())
	}
	got, _ := r.Get(ctx, "a")
	if got.ImageTasks[0].Approval.Status != domain.ApprovalPendingReview {
		t.Fatalf("update not persisted")
	}
	if err := r.Update(ctx, project("missing")); !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("Update(missing) err = %v", err)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	_, err := NewProjectRepositoryMemory().Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("err = %v", err)
	}
}
