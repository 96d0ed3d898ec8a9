package moesi

import (
	"github.com/sarchlab/moesi/internal/idgen"
	"github.com/sarchlab/moesi/tracing"
)

// Core owns one cache and a reference to the shared coherence engine. It
// translates a CPU operation into the hit-test -> eviction write-back ->
// bus-transaction -> local-update sequence of spec §4.2.
type Core struct {
	ID     int
	cache  *Cache
	engine bus
	idgen  idgen.Generator

	addrBound uint64 // W * B: one past the highest valid address
}

// NewCore builds a Core wrapping cache and sharing engine with every
// other core in the system. addrBound is W*B (spec §6): addresses must
// satisfy 0 <= addr < addrBound.
func NewCore(id int, cache *Cache, engine *CoherenceEngine, addrBound uint64, gen idgen.Generator) *Core {
	return &Core{ID: id, cache: cache, engine: engine, addrBound: addrBound, idgen: gen}
}

// Cache exposes the core's private cache for read-only inspection by the
// harness after all scheduled operations have completed (spec §5).
func (c *Core) Cache() *Cache { return c.cache }

func (c *Core) validate(req Request) error {
	if req.Addr >= c.addrBound {
		return &AddressError{Addr: req.Addr, Msg: "address out of range"}
	}

	if req.Addr%c.cache.WordSize != 0 {
		return &AddressError{Addr: req.Addr, Msg: "address is not word-aligned"}
	}

	return nil
}

// Do executes one CPU operation end to end, fully serialized with
// respect to every other core (spec §5). An address error leaves cache
// and memory untouched; any other error is a programming-model
// violation from Strict invariant checking.
func (c *Core) Do(req Request) (Result, error) {
	if err := c.validate(req); err != nil {
		return Result{}, err
	}

	c.engine.Lock()
	defer c.engine.Unlock()

	opID := c.idgen.Generate()

	c.engine.Emit(tracing.Event{
		OpID: opID, CoreID: c.ID, Kind: tracing.OpStart,
		Op: req.Op.String(), AtomicKind: req.Kind.String(), Addr: req.Addr, Value: req.Value,
	})

	line := c.cache.LineFor(req.Addr)
	hit := line.Hit(req.Addr)

	c.engine.Emit(tracing.Event{
		OpID: opID, CoreID: c.ID, Kind: tracing.HitMiss,
		Addr: req.Addr, FromState: line.State.String(),
		Detail: hitMissLabel(hit),
	})

	if !hit && line.State.Dirty() {
		c.evict(opID, line)
	}

	var result Result

	switch req.Op {
	case Load:
		result = c.doLoad(opID, line, req, hit)
	case Store:
		result = c.doStore(opID, line, req, hit)
	case Atomic:
		result = c.doAtomic(opID, line, req, hit)
	}

	c.engine.Emit(tracing.Event{
		OpID: opID, CoreID: c.ID, Kind: tracing.OpComplete,
		Addr: req.Addr, Value: result.Value, ToState: line.State.String(),
	})

	return result, nil
}

func hitMissLabel(hit bool) string {
	if hit {
		return "hit"
	}

	return "miss"
}

// evict writes back a dirty victim line ahead of a conflict miss (spec
// §4.2 step 3). line.Tag/line.Value are the victim's; it is invalidated
// afterward.
func (c *Core) evict(opID string, line *CacheLine) {
	c.engine.broadcast(BusWB, line.Tag, c.ID, opID, line.Value)
	line.State = Invalid
}

func (c *Core) doLoad(opID string, line *CacheLine, req Request, hit bool) Result {
	if hit {
		c.emitTransition(opID, req.Addr, line.State, line.State)

		return Result{Value: line.Value}
	}

	from := line.State
	resp := c.engine.broadcast(BusRd, req.Addr, c.ID, opID, 0)

	line.Tag = req.Addr
	line.Value = resp.Data
	line.State = resp.NextState

	c.emitTransition(opID, req.Addr, from, line.State)

	return Result{Value: line.Value}
}

func (c *Core) doStore(opID string, line *CacheLine, req Request, hit bool) Result {
	from := line.State

	switch {
	case hit && (from == Exclusive || from == Modified):
		line.Value = req.Value
		line.State = Modified
	case hit && (from == Shared || from == Owned):
		c.engine.broadcast(BusUpgr, req.Addr, c.ID, opID, 0)
		line.Value = req.Value
		line.State = Modified
	default: // miss
		resp := c.engine.broadcast(BusRdX, req.Addr, c.ID, opID, 0)
		line.Tag = req.Addr
		line.Value = req.Value // local store overwrites the fetched value
		line.State = resp.NextState
	}

	c.emitTransition(opID, req.Addr, from, line.State)

	return Result{Value: line.Value}
}

func (c *Core) doAtomic(opID string, line *CacheLine, req Request, hit bool) Result {
	from := line.State

	var current uint32

	switch {
	case hit && (from == Exclusive || from == Modified):
		current = line.Value
	case hit && (from == Shared || from == Owned):
		c.engine.broadcast(BusUpgr, req.Addr, c.ID, opID, 0)
		current = line.Value
	default: // miss
		resp := c.engine.broadcast(BusRdX, req.Addr, c.ID, opID, 0)
		line.Tag = req.Addr
		current = resp.Data
	}

	result, ok := req.Kind.apply(current, req.Value, req.Expected)
	line.Value = result
	line.State = Modified

	c.emitTransition(opID, req.Addr, from, line.State)

	return Result{Value: result, CASSucceeded: ok}
}

func (c *Core) emitTransition(opID string, addr uint64, from, to State) {
	c.engine.Emit(tracing.Event{
		OpID: opID, CoreID: c.ID, Kind: tracing.RequesterTransition,
		Addr: addr, FromState: from.String(), ToState: to.String(),
	})
}
