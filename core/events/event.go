package events

// Event represents a structured state change emitted by an engine.
type Event struct {
	Type       string
	Attributes map[string]string
}

// EventType returns the canonical type label of the event.
func (e *Event) EventType() string {
	if e == nil {
		return ""
	}
	return e.Type
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(*Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(*Event) {}

// Recorder buffers emitted events in order. The node installs a fresh recorder
// per public operation so events from a failed call never leak out.
type Recorder struct {
	Events []*Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt *Event) {
	if r == nil || evt == nil {
		return
	}
	r.Events = append(r.Events, evt)
}
