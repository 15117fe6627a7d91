package documents

import (
	"sync"
	"time"
)

// UploadState is the phase of the current upload lifecycle:
// idle -> validating -> uploading -> complete (fade-out) -> idle.
type UploadState string

const (
	StateIdle       UploadState = "idle"
	StateValidating UploadState = "validating"
	StateUploading  UploadState = "uploading"
	StateComplete   UploadState = "complete"
)

const (
	defaultFadeDelay  = 2 * time.Second
	defaultResetDelay = 3 * time.Second
)

// Notification is the transient message shown after an upload ends.
// Success and failure are mutually exclusive: a failed upload never
// announces success.
type Notification struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
	Faded    bool   `json:"faded"`
}

// Snapshot is the externally visible upload state.
type Snapshot struct {
	State        UploadState   `json:"state"`
	Received     int64         `json:"received"`
	Total        int64         `json:"total"`
	Notification *Notification `json:"notification,omitempty"`
}

// Tracker holds the in-memory upload lifecycle. Nothing here survives
// the process; there is no persistence.
type Tracker struct {
	mu           sync.Mutex
	state        UploadState
	received     int64
	total        int64
	notification *Notification

	fadeDelay  time.Duration
	resetDelay time.Duration
	timers     []*time.Timer
}

func NewTracker() *Tracker {
	return &Tracker{
		state:      StateIdle,
		fadeDelay:  defaultFadeDelay,
		resetDelay: defaultResetDelay,
	}
}

// NewTrackerWithDelays overrides the fade and reset delays, for tests.
func NewTrackerWithDelays(fade, reset time.Duration) *Tracker {
	t := NewTracker()
	t.fadeDelay = fade
	t.resetDelay = reset
	return t
}

func (t *Tracker) BeginValidation() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTimers()
	t.state = StateValidating
	t.received = 0
	t.total = 0
	t.notification = nil
}

func (t *Tracker) BeginUpload(total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateUploading
	t.total = total
}

// Progress records bytes received so far. Callers throttle the rate.
func (t *Tracker) Progress(received, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.received = received
	t.total = total
}

// Succeed announces a completed upload, then fades the notification and
// resets the lifecycle after the fixed delays.
func (t *Tracker) Succeed(filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = StateComplete
	t.notification = &Notification{
		Success:  true,
		Filename: filename,
		Message:  filename + " uploaded",
	}

	t.timers = append(t.timers,
		time.AfterFunc(t.fadeDelay, t.fade),
		time.AfterFunc(t.resetDelay, t.reset),
	)
}

// Fail records a failed upload. The lifecycle resets immediately and
// only the error notification remains.
func (t *Tracker) Fail(filename string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopTimers()
	t.state = StateIdle
	t.received = 0
	t.total = 0
	t.notification = &Notification{
		Success:  false,
		Filename: filename,
		Message:  err.Error(),
	}
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		State:    t.state,
		Received: t.received,
		Total:    t.total,
	}
	if t.notification != nil {
		n := *t.notification
		snap.Notification = &n
	}
	return snap
}

func (t *Tracker) fade() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.notification != nil && t.notification.Success {
		t.notification.Faded = true
	}
}

func (t *Tracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateComplete {
		return
	}
	t.state = StateIdle
	t.received = 0
	t.total = 0
	t.notification = nil
}

func (t *Tracker) stopTimers() {
	for _, timer := range t.timers {
		timer.Stop()
	}
	t.timers = nil
}
