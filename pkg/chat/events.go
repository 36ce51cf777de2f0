package chat

// EventType defines the type of event emitted by the conversation manager.
type EventType string

const (
	EventLoaded      EventType = "loaded"       // EventLoaded indicates the startup load finished and the snapshot is published.
	EventLoadFailed  EventType = "load_failed"  // EventLoadFailed indicates the persisted snapshot could not be loaded.
	EventSaved       EventType = "saved"        // EventSaved indicates a snapshot was persisted to disk.
	EventSaveFailed  EventType = "save_failed"  // EventSaveFailed indicates a scheduled or immediate save failed.
	EventCleared     EventType = "cleared"      // EventCleared indicates the persisted snapshot file was deleted.
	EventClearFailed EventType = "clear_failed" // EventClearFailed indicates the best-effort file deletion failed.
)

// Event is a report surfaced to the UI layer. The in-memory snapshot
// remains authoritative regardless of what an event carries; failure
// events are informational, never a rollback.
type Event struct {
	// Type indicates the kind of event.
	Type EventType

	// Err carries the underlying failure for *_failed events.
	Err error

	// Conversations is the number of conversations involved, where
	// meaningful (loads and saves).
	Conversations int
}
