package domain

import (
	"fmt"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCancelled, true},
		{StatusInProgress, StatusPaused, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusPartial, true},
		{StatusPaused, StatusInProgress, true},
		{StatusPaused, StatusCancelled, true},

		{StatusPending, StatusPaused, false},
		{StatusPaused, StatusCompleted, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCancelled, StatusInProgress, false},
		{StatusFailed, StatusInProgress, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestApplyTransitionSetsEndTime(t *testing.T) {
	now := time.Now()
	job := &ImportJob{Status: StatusInProgress, Resumable: true}

	if err := job.ApplyTransition(StatusCompleted, now); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if job.EndTime == nil || !job.EndTime.Equal(now) {
		t.Errorf("EndTime = %v, want %v", job.EndTime, now)
	}
}

func TestApplyTransitionRejectsIllegalMove(t *testing.T) {
	job := &ImportJob{Status: StatusCompleted}
	if err := job.ApplyTransition(StatusInProgress, time.Now()); err == nil {
		t.Fatal("restarting a completed job must be rejected")
	}
}

func TestApplyTransitionClearsResumable(t *testing.T) {
	job := &ImportJob{Status: StatusInProgress, Resumable: true}
	if err := job.ApplyTransition(StatusCancelled, time.Now()); err != nil {
		t.Fatalf("ApplyTransition: %v", err)
	}
	if job.Resumable {
		t.Error("cancelled job must not be resumable")
	}
}

func TestRecordErrorCap(t *testing.T) {
	job := &ImportJob{}
	for i := 0; i < MaxStoredErrors+50; i++ {
		job.RecordError(fmt.Sprintf("error %d", i))
	}

	if job.ErrorCount != MaxStoredErrors+50 {
		t.Errorf("ErrorCount = %d, want %d", job.ErrorCount, MaxStoredErrors+50)
	}
	if len(job.Errors) != MaxStoredErrors {
		t.Fatalf("stored errors = %d, want %d", len(job.Errors), MaxStoredErrors)
	}
	// The oldest entries are dropped, the newest kept.
	if job.Errors[len(job.Errors)-1] != fmt.Sprintf("error %d", MaxStoredErrors+49) {
		t.Errorf("last stored error = %q", job.Errors[len(job.Errors)-1])
	}
}

func TestAdvanceCursorMonotonic(t *testing.T) {
	job := &ImportJob{Cursor: 1000}
	job.AdvanceCursor(500)
	if job.Cursor != 1000 {
		t.Errorf("cursor moved backwards to %d", job.Cursor)
	}
	job.AdvanceCursor(2000)
	if job.Cursor != 2000 {
		t.Errorf("cursor = %d, want 2000", job.Cursor)
	}
}

func TestFinalStatus(t *testing.T) {
	tests := []struct {
		name      string
		processed int
		errors    int
		want      Status
	}{
		{"clean run", 1000, 0, StatusCompleted},
		{"errors under threshold", 1000, 100, StatusCompleted},
		{"errors over threshold", 1000, 101, StatusPartial},
		{"empty run", 0, 0, StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &ImportJob{ProcessedItems: tt.processed, ErrorCount: tt.errors}
			if got := job.FinalStatus(); got != tt.want {
				t.Errorf("FinalStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProgressPercent(t *testing.T) {
	done := &ImportJob{Status: StatusCompleted}
	if got := done.ProgressPercent(); got != 100 {
		t.Errorf("terminal job progress = %d, want 100", got)
	}

	running := &ImportJob{Status: StatusInProgress, TotalItems: 200, ProcessedItems: 50}
	if got := running.ProgressPercent(); got != 25 {
		t.Errorf("progress = %d, want 25", got)
	}

	almostDone := &ImportJob{Status: StatusInProgress, TotalItems: 100, ProcessedItems: 100}
	if got := almostDone.ProgressPercent(); got != 99 {
		t.Errorf("non-terminal progress must cap at 99, got %d", got)
	}

	noTotal := &ImportJob{Status: StatusInProgress, ProcessedItems: 5000}
	if got := noTotal.ProgressPercent(); got > 95 {
		t.Errorf("estimate without total must stay under 95, got %d", got)
	}
}
