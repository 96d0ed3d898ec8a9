// Package idgen hands out unique operation IDs for trace events.
// Grounded on github.com/sarchlab/akita/v4/sim/id's IDGenerator, whose
// sequential-counter generator this package keeps and whose
// commented-out xid-based generator it completes and wires in.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator hands out unique, opaque, string operation IDs.
type Generator interface {
	Generate() string
}

// NewSequential returns a generator producing "1", "2", "3", ... in
// order. Deterministic output is convenient for golden-file tests of a
// single-threaded scenario.
func NewSequential() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() string {
	id := atomic.AddUint64(&g.next, 1)
	return strconv.FormatUint(id, 10)
}

// NewConcurrent returns a generator backed by github.com/rs/xid, safe to
// call from many goroutines without contending on a shared counter. The
// concurrent atomic-operation scenario (spec §8 scenario 6) uses this one,
// since its whole point is that several cores race to call Core.Do before
// the bus's global lock serializes them.
func NewConcurrent() Generator {
	return &concurrentGenerator{}
}

type concurrentGenerator struct{}

func (concurrentGenerator) Generate() string {
	return xid.New().String()
}
