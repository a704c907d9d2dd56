package types

import "time"

// EventType identifies the kind of state change an event describes
type EventType string

const (
	EventStateChanged      EventType = "state_changed"
	EventThemeChanged      EventType = "theme_changed"
	EventCategoriesUpdated EventType = "categories_updated"
	EventDiskSelected      EventType = "disk_selected"
	EventAnalysisStarted   EventType = "analysis_started"
	EventAnalysisCompleted EventType = "analysis_completed"
	EventWorkerStarted     EventType = "worker_started"
	EventWorkerFinished    EventType = "worker_finished"
	EventMemoryCleanup     EventType = "memory_cleanup"
)

// Event is an immutable record describing a single state change.
// It lives for one dispatch cycle and is never persisted.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"event_type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
}

// Observer receives events from the state bus. Observers must not block
// and must not re-enter the emitting manager while it holds a lock.
type Observer func(Event)
