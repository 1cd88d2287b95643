package builder

import "time"

// Stage identifies one step of an image build.
type Stage string

const (
	StageValidate     Stage = "validate"
	StageOrganization Stage = "organization"
	StageImage        Stage = "image"
	StageKey          Stage = "key"
	StageProvision    Stage = "provision"
	StageBoot         Stage = "boot"
	StageConnect      Stage = "connect"
	StageUpload       Stage = "upload"
	StageBootstrap    Stage = "bootstrap"
	StageShutdown     Stage = "shutdown"
	StageSnapshot     Stage = "snapshot"
	StageRegister     Stage = "register"
	StageCleanup      Stage = "cleanup"
	StageComplete     Stage = "complete"
	StageError        Stage = "error"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the stage.
func (s Stage) DisplayName() string {
	switch s {
	case StageValidate:
		return "Validating"
	case StageOrganization:
		return "Looking Up Organization"
	case StageImage:
		return "Finding Bootstrap Image"
	case StageKey:
		return "Generating Key"
	case StageProvision:
		return "Provisioning"
	case StageBoot:
		return "Booting"
	case StageConnect:
		return "Connecting"
	case StageUpload:
		return "Uploading"
	case StageBootstrap:
		return "Bootstrapping NixOS"
	case StageShutdown:
		return "Waiting For Shutdown"
	case StageSnapshot:
		return "Snapshotting"
	case StageRegister:
		return "Registering Image"
	case StageCleanup:
		return "Cleaning Up"
	case StageComplete:
		return "Complete"
	case StageError:
		return "Error"
	default:
		return string(s)
	}
}

// ProgressEvent is one build progress update.
type ProgressEvent struct {
	Stage     Stage     // Current stage
	Message   string    // Human-readable message
	Detail    string    // Additional detail or output line
	Percent   int       // 0-100, -1 for indeterminate
	IsError   bool      // True if this is an error message
	Timestamp time.Time // When this event occurred
}

// NewProgressEvent creates a new progress event.
func NewProgressEvent(stage Stage, message string, percent int) ProgressEvent {
	return ProgressEvent{
		Stage:     stage,
		Message:   message,
		Percent:   percent,
		Timestamp: time.Now(),
	}
}

// NewProgressEventWithDetail creates a progress event with detail.
func NewProgressEventWithDetail(stage Stage, message, detail string, percent int) ProgressEvent {
	return ProgressEvent{
		Stage:     stage,
		Message:   message,
		Detail:    detail,
		Percent:   percent,
		Timestamp: time.Now(),
	}
}

// NewErrorEvent creates a new error progress event.
func NewErrorEvent(message string) ProgressEvent {
	return ProgressEvent{
		Stage:     StageError,
		Message:   message,
		Percent:   -1,
		IsError:   true,
		Timestamp: time.Now(),
	}
}

// ProgressCallback is called with progress updates during a build.
type ProgressCallback func(ProgressEvent)

// NoOpProgress is a progress callback that does nothing.
func NoOpProgress(_ ProgressEvent) {}

// ProgressTracker collects progress events for later review.
type ProgressTracker struct {
	events []ProgressEvent
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{
		events: make([]ProgressEvent, 0),
	}
}

// Callback returns a ProgressCallback that records events.
func (t *ProgressTracker) Callback() ProgressCallback {
	return func(e ProgressEvent) {
		t.events = append(t.events, e)
	}
}

// Events returns all recorded events.
func (t *ProgressTracker) Events() []ProgressEvent {
	return t.events
}

// LastEvent returns the most recent event, or nil if none.
func (t *ProgressTracker) LastEvent() *ProgressEvent {
	if len(t.events) == 0 {
		return nil
	}
	return &t.events[len(t.events)-1]
}

// HasErrors returns true if any error events were recorded.
func (t *ProgressTracker) HasErrors() bool {
	for _, e := range t.events {
		if e.IsError {
			return true
		}
	}
	return false
}
