// Package tracing defines the structured, ordered trace events a running
// MOESI simulation emits, and the sinks that serialize them (grounded on
// github.com/sarchlab/akita/v4/tracing's Task/Tracer split).
package tracing

// Kind enumerates the event shapes listed in spec §4.5. Event order, as
// emitted by a single CoherenceEngine/Core pair, always matches the
// temporal order of the simulation, because the bus serializes every
// operation (spec §5).
type Kind string

const (
	// OpStart marks the beginning of a CPU operation on a core.
	OpStart Kind = "op_start"
	// HitMiss classifies a lookup as a hit or miss, carrying the line's
	// state before any write-back or bus transaction.
	HitMiss Kind = "hit_miss"
	// WriteBack marks a BusWB issued ahead of a conflict-miss fill.
	WriteBack Kind = "write_back"
	// BusRequest marks a bus transaction issued by the requester.
	BusRequest Kind = "bus_request"
	// SnoopHit marks a peer cache observing a bus transaction on a line
	// it holds non-invalid.
	SnoopHit Kind = "snoop_hit"
	// PeerTransition marks a snooping peer's state change.
	PeerTransition Kind = "peer_transition"
	// Supplier identifies which cache (or memory) supplied the data for
	// a BusRd/BusRdX, and the value supplied.
	Supplier Kind = "supplier"
	// RequesterTransition marks the requester's own state change after
	// a bus transaction completes.
	RequesterTransition Kind = "requester_transition"
	// OpComplete marks the end of a CPU operation.
	OpComplete Kind = "op_complete"
)

// Event is one record in the trace. Not every field is meaningful for
// every Kind; the Emit calls in moesi.Core and moesi.CoherenceEngine show
// which fields each Kind populates.
type Event struct {
	// Seq is a strictly increasing sequence number assigned by the sink,
	// witnessing the total order the bus enforces across every core.
	Seq int `json:"seq"`
	// OpID identifies the CPU operation this event belongs to.
	OpID string `json:"op_id"`
	// CoreID is the core that owns the CPU operation (the requester),
	// regardless of which cache the event is actually about.
	CoreID int `json:"core_id"`
	Kind   Kind `json:"kind"`

	Op         string `json:"op,omitempty"`
	AtomicKind string `json:"atomic_kind,omitempty"`
	Addr       uint64 `json:"addr"`
	Value      uint32 `json:"value,omitempty"`

	BusOp string `json:"bus_op,omitempty"`

	// PeerID is populated for SnoopHit, PeerTransition, and Supplier
	// events naming a specific peer cache. -1 means memory.
	PeerID int `json:"peer_id,omitempty"`

	FromState string `json:"from_state,omitempty"`
	ToState   string `json:"to_state,omitempty"`

	FromMemory bool `json:"from_memory,omitempty"`

	Detail string `json:"detail,omitempty"`
}
