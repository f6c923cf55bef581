package types

import (
	"testing"
	"time"
)

func TestUserFlowIsOverdue(t *testing.T) {
	deadline := time.Date(2026, time.September, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, time.September, 7, 15, 30, 0, 0, time.UTC)

	uf := &UserFlow{Status: FlowStatusInProgress, ExpectedCompletionDate: &deadline}
	if !uf.IsOverdue(now) {
		t.Error("in_progress past deadline should be overdue")
	}
	if uf.IsOverdue(deadline) {
		t.Error("the deadline day itself is not overdue")
	}

	uf.Status = FlowStatusCompleted
	if uf.IsOverdue(now) {
		t.Error("completed flows are never overdue")
	}

	uf.Status = FlowStatusInProgress
	uf.ExpectedCompletionDate = nil
	if uf.IsOverdue(now) {
		t.Error("flows without a deadline are never overdue")
	}
}

func TestUserFlowIsActiveStatus(t *testing.T) {
	for status, want := range map[string]bool{
		FlowStatusNotStarted: false,
		FlowStatusInProgress: true,
		FlowStatusPaused:     true,
		FlowStatusCompleted:  false,
		FlowStatusSuspended:  false,
	} {
		uf := &UserFlow{Status: status}
		if got := uf.IsActiveStatus(); got != want {
			t.Errorf("IsActiveStatus() for %s = %v, want %v", status, got, want)
		}
	}
}
