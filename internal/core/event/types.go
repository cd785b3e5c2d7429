package event

import "time"

type EventType string

const (
	EventJobCreated   EventType = "job.created"
	EventJobCompleted EventType = "job.completed"
	EventJobFailed    EventType = "job.failed"
)

// Event is one job lifecycle notification. The payload is typed rather than
// opaque: every event this system emits is about exactly one job.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Job       JobEvent
}

// JobEvent identifies the job an event is about. RetryOf is set on created
// events for retry runs, Duration on completions, Error on failures.
type JobEvent struct {
	JobID    string
	RetryOf  string
	Duration time.Duration
	Error    string
}
