package arbor

import "fmt"

// EventKind identifies an engine event.
type EventKind uint8

const (
	EventResourceLoadFailed EventKind = iota // texture/shader/audio missing or malformed
	EventScriptFailed                        // script compile, load or update failure
	EventSceneLoaded                         // scene file read into the view
	EventSceneSaved                          // scene file written
	EventPlayStarted                         // view entered play mode
	EventPlayStopped                         // view left play mode
)

func (k EventKind) String() string {
	switch k {
	case EventResourceLoadFailed:
		return "ResourceLoadFailed"
	case EventScriptFailed:
		return "ScriptFailed"
	case EventSceneLoaded:
		return "SceneLoaded"
	case EventSceneSaved:
		return "SceneSaved"
	case EventPlayStarted:
		return "PlayStarted"
	case EventPlayStopped:
		return "PlayStopped"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a notification published on an EventBus.
type Event struct {
	Kind    EventKind
	Subject string // path, object name or scene name
	Err     error
}

const maxRecentEvents = 64

// EventBus fans engine events out to subscribers (UI panels, logs) and keeps
// the most recent ones for panels that poll. Handlers run synchronously on
// the publishing goroutine.
type EventBus struct {
	handlers []func(Event)
	recent   []Event
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers fn for every subsequent event.
func (b *EventBus) Subscribe(fn func(Event)) {
	b.handlers = append(b.handlers, fn)
}

// Publish delivers ev to all subscribers and records it.
func (b *EventBus) Publish(ev Event) {
	if len(b.recent) == maxRecentEvents {
		copy(b.recent, b.recent[1:])
		b.recent = b.recent[:maxRecentEvents-1]
	}
	b.recent = append(b.recent, ev)
	for _, h := range b.handlers {
		h(ev)
	}
}

// Report is shorthand for publishing a failure.
func (b *EventBus) Report(kind EventKind, subject string, err error) {
	b.Publish(Event{Kind: kind, Subject: subject, Err: err})
}

// Recent returns up to the last 64 events, oldest first. The returned slice
// MUST NOT be mutated.
func (b *EventBus) Recent() []Event {
	return b.recent
}
