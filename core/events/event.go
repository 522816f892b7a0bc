package events

// Event represents a structured state change emitted by the chain.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Tee fans a single event out to multiple emitters, in order. It lets a
// caller that only has one Emitter slot (see farming.WithEmitter) feed
// several independent sinks — a websocket hub and a warehouse exporter,
// for instance — from the same event stream.
type Tee []Emitter

// Emit implements the Emitter interface.
func (t Tee) Emit(ev Event) {
	for _, e := range t {
		if e != nil {
			e.Emit(ev)
		}
	}
}
