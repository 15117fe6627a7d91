package documents

import (
	"errors"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTracker_Lifecycle(t *testing.T) {
	tracker := NewTrackerWithDelays(20*time.Millisecond, 40*time.Millisecond)

	if got := tracker.Snapshot().State; got != StateIdle {
		t.Fatalf("initial state = %q, want idle", got)
	}

	tracker.BeginValidation()
	if got := tracker.Snapshot().State; got != StateValidating {
		t.Fatalf("state = %q, want validating", got)
	}

	tracker.BeginUpload(1000)
	tracker.Progress(400, 1000)

	snap := tracker.Snapshot()
	if snap.State != StateUploading {
		t.Errorf("state = %q, want uploading", snap.State)
	}
	if snap.Received != 400 || snap.Total != 1000 {
		t.Errorf("progress = %d/%d, want 400/1000", snap.Received, snap.Total)
	}

	tracker.Succeed("notes.txt")

	snap = tracker.Snapshot()
	if snap.State != StateComplete {
		t.Errorf("state = %q, want complete", snap.State)
	}
	if snap.Notification == nil || !snap.Notification.Success {
		t.Fatalf("notification = %+v, want success", snap.Notification)
	}
	if snap.Notification.Filename != "notes.txt" {
		t.Errorf("notification filename = %q, want notes.txt", snap.Notification.Filename)
	}
	if snap.Notification.Faded {
		t.Error("notification faded immediately, want visible first")
	}

	// The notification fades before the lifecycle resets.
	waitFor(t, time.Second, func() bool {
		s := tracker.Snapshot()
		return s.Notification != nil && s.Notification.Faded
	})
	if got := tracker.Snapshot().State; got != StateComplete {
		t.Errorf("state = %q during fade, want complete", got)
	}

	waitFor(t, time.Second, func() bool {
		return tracker.Snapshot().State == StateIdle
	})
	snap = tracker.Snapshot()
	if snap.Notification != nil {
		t.Errorf("notification survived the reset: %+v", snap.Notification)
	}
	if snap.Received != 0 || snap.Total != 0 {
		t.Errorf("progress not cleared: %d/%d", snap.Received, snap.Total)
	}
}

func TestTracker_FailIsImmediateAndNeverSuccess(t *testing.T) {
	tracker := NewTrackerWithDelays(20*time.Millisecond, 40*time.Millisecond)

	tracker.BeginValidation()
	tracker.BeginUpload(500)
	tracker.Progress(100, 500)
	tracker.Fail("broken.txt", errors.New("file too large"))

	snap := tracker.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("state = %q after failure, want idle", snap.State)
	}
	if snap.Received != 0 || snap.Total != 0 {
		t.Errorf("progress not cleared: %d/%d", snap.Received, snap.Total)
	}
	if snap.Notification == nil {
		t.Fatal("no failure notification")
	}
	if snap.Notification.Success {
		t.Error("failure notification claims success")
	}
	if snap.Notification.Message != "file too large" {
		t.Errorf("notification message = %q", snap.Notification.Message)
	}

	// The error stays visible; no fade timer runs for failures.
	time.Sleep(60 * time.Millisecond)
	snap = tracker.Snapshot()
	if snap.Notification == nil || snap.Notification.Faded {
		t.Errorf("failure notification = %+v, want unfaded and present", snap.Notification)
	}
}

func TestTracker_NewUploadCancelsPendingReset(t *testing.T) {
	tracker := NewTrackerWithDelays(20*time.Millisecond, 40*time.Millisecond)

	tracker.BeginValidation()
	tracker.BeginUpload(10)
	tracker.Succeed("first.txt")

	// Starting the next upload before the timers fire must not let the
	// stale timers clobber the new lifecycle.
	tracker.BeginValidation()
	tracker.BeginUpload(20)

	time.Sleep(60 * time.Millisecond)

	snap := tracker.Snapshot()
	if snap.State != StateUploading {
		t.Errorf("state = %q, want uploading", snap.State)
	}
	if snap.Notification != nil {
		t.Errorf("stale notification present: %+v", snap.Notification)
	}
}
