package moesi

import (
	"fmt"
	"sync"

	"github.com/sarchlab/moesi/tracing"
)

// bus is the narrow interface Core depends on: the serialization right
// and the broadcast/trace primitives, without exposing the rest of
// CoherenceEngine's construction-time wiring. *CoherenceEngine is the
// only production implementation; core_test.go mocks this interface to
// unit-test Core.Do's dispatch logic without a real multi-core bus
// (grounded on the mockgen-generated port/MSHR mocks
// mem/cache/cache_suite_test.go declares for the same purpose).
type bus interface {
	Lock()
	Unlock()
	Emit(ev tracing.Event)
	broadcast(op BusOp, addr uint64, initiator int, opID string, wbValue uint32) Response
}

// Response is what CoherenceEngine.broadcast returns to the requester: the
// data to fill the line with (meaningless for BusUpgr and BusWB) and the
// state the requester's line should transition to.
type Response struct {
	Data       uint32
	FromMemory bool
	// Supplier is the core ID that supplied Data, or -1 if it came from
	// memory (or the response carries no data, as for BusUpgr). A BusWB
	// returns the zero Response.
	Supplier  int
	NextState State
}

// CoherenceEngine is the bus: it broadcasts a transaction to every
// non-initiator cache, collects snoop outcomes, and computes the
// requester's next state and data source (spec §4.3). It also serializes
// every CPU operation system-wide (spec §5): Core.Do acquires the engine
// for the full hit-test -> write-back -> bus-transaction -> local-update
// sequence, not just for the bus transaction itself, following Design
// Note (a) of spec §9 extended to the whole operation.
type CoherenceEngine struct {
	mu     sync.Mutex
	caches []*Cache
	mem    *Memory
	sink   tracing.Sink
	// Strict enables the invariant check after every broadcast
	// (spec §7: "Implementations are encouraged to check invariants in
	// debug builds on every transition"). A violation detected there
	// panics, matching the "fatal; the simulator must abort" language of
	// spec §7. With Strict false, broadcast checks nothing; CheckInvariants
	// still returns a violation as an *InvariantViolation error.
	Strict bool
}

// NewCoherenceEngine builds the bus wired to every cache it must snoop and
// the memory it falls back to. caches must be indexed by core ID: the
// engine skips caches[initiator] when broadcasting.
func NewCoherenceEngine(mem *Memory, caches []*Cache, sink tracing.Sink) *CoherenceEngine {
	return &CoherenceEngine{caches: caches, mem: mem, sink: sink}
}

// Lock acquires the system-wide serialization right for one CPU
// operation. Core.Do calls this before doing anything else and releases
// it with Unlock once the operation has fully completed.
func (e *CoherenceEngine) Lock() { e.mu.Lock() }

// Unlock releases the serialization right acquired by Lock.
func (e *CoherenceEngine) Unlock() { e.mu.Unlock() }

// Emit records a trace event. Callers must already hold the engine's
// lock, so every event from every core lands in the single total order
// the bus enforces.
func (e *CoherenceEngine) Emit(ev tracing.Event) { e.sink.Emit(ev) }

// snoopTransition computes a peer's next state and whether it supplies
// data, for a given bus op and the peer's present state (spec §4.3's
// snoop transition table). Only called for peers whose line currently
// matches the requested address and is non-Invalid.
func snoopTransition(op BusOp, present State) (next State, supplies bool) {
	switch op {
	case BusRd:
		switch present {
		case Modified:
			return Owned, true
		case Owned:
			return Owned, true // priority resolved by the caller
		case Exclusive:
			return Shared, false
		case Shared:
			return Shared, false
		}
	case BusRdX:
		switch present {
		case Modified, Owned, Exclusive, Shared:
			return Invalid, present == Modified || present == Owned
		}
	case BusUpgr:
		if present == Modified {
			// Spec §9 open question: global invariants P1/P2 make this
			// unreachable (a BusUpgr implies the requester already holds
			// a Shared/Owned copy, which cannot coexist with a peer in
			// Modified). Asserting here, rather than silently
			// invalidating, is the choice the spec recommends.
			panic(fmt.Sprintf("moesi: BusUpgr snooped a peer in Modified state; " +
				"this is unreachable under invariants P1/P2"))
		}

		return Invalid, false
	case BusWB:
		return present, false
	}

	panic(fmt.Sprintf("moesi: unhandled bus op %v against state %v", op, present))
}

// broadcast is the bus's single entry point (spec §4.3). The caller
// (Core.Do) must already hold the engine's lock. addr must already be
// validated and value-aligned by the caller.
func (e *CoherenceEngine) broadcast(
	op BusOp, addr uint64, initiator int, opID string, wbValue uint32,
) Response {
	if op == BusWB {
		e.mem.Write(addr, wbValue)
		e.Emit(tracing.Event{
			OpID: opID, CoreID: initiator, Kind: tracing.WriteBack,
			BusOp: op.String(), Addr: addr, Value: wbValue,
		})

		return Response{}
	}

	e.Emit(tracing.Event{
		OpID: opID, CoreID: initiator, Kind: tracing.BusRequest,
		BusOp: op.String(), Addr: addr,
	})

	supplierID := -1
	supplierState := Invalid
	anyNonInvalid := false

	for i, peer := range e.caches {
		if i == initiator {
			continue
		}

		line := peer.LineFor(addr)
		if !line.Hit(addr) {
			continue
		}

		anyNonInvalid = true
		before := line.State

		e.Emit(tracing.Event{
			OpID: opID, CoreID: initiator, Kind: tracing.SnoopHit,
			BusOp: op.String(), Addr: addr, PeerID: i, FromState: before.String(),
		})

		next, supplies := snoopTransition(op, before)

		if supplies && (before == Modified || supplierState != Modified) {
			supplierID = i
			supplierState = before
		}

		if next != before {
			line.State = next

			e.Emit(tracing.Event{
				OpID: opID, CoreID: initiator, Kind: tracing.PeerTransition,
				Addr: addr, PeerID: i, FromState: before.String(), ToState: next.String(),
			})
		}
	}

	resp := e.resolveResponse(op, addr, supplierID, anyNonInvalid)

	e.Emit(tracing.Event{
		OpID: opID, CoreID: initiator, Kind: tracing.Supplier,
		Addr: addr, PeerID: resp.Supplier, Value: resp.Data, FromMemory: resp.FromMemory,
	})

	if e.Strict {
		if err := e.checkInvariants(addr); err != nil {
			panic(err.Error())
		}
	}

	return resp
}

// resolveResponse applies the data-source priority rule (Modified >
// Owned > memory) and computes the requester's next state (spec §4.3).
func (e *CoherenceEngine) resolveResponse(
	op BusOp, addr uint64, supplierID int, anyNonInvalid bool,
) Response {
	switch op {
	case BusRd:
		if supplierID >= 0 {
			return Response{
				Data: e.caches[supplierID].LineFor(addr).Value, Supplier: supplierID,
				NextState: Shared,
			}
		}

		next := Exclusive
		if anyNonInvalid {
			next = Shared
		}

		return Response{Data: e.mem.Read(addr), FromMemory: true, Supplier: -1, NextState: next}
	case BusRdX:
		if supplierID >= 0 {
			return Response{
				Data: e.caches[supplierID].LineFor(addr).Value, Supplier: supplierID,
				NextState: Modified,
			}
		}

		return Response{Data: e.mem.Read(addr), FromMemory: true, Supplier: -1, NextState: Modified}
	case BusUpgr:
		return Response{Supplier: -1, NextState: Modified}
	default:
		panic(fmt.Sprintf("moesi: resolveResponse called with non-response op %v", op))
	}
}
