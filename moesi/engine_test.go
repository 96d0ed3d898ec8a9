package moesi

import (
	. "github.com/onsi/ginkgo/v2"
	gomega "github.com/onsi/gomega"

	"github.com/sarchlab/moesi/tracing"
)

func newTestEngine(numCores, cacheSize int, wordSize uint64) (*CoherenceEngine, []*Cache, *Memory) {
	caches := make([]*Cache, numCores)
	for i := range caches {
		caches[i] = NewCache(i, cacheSize, wordSize)
	}

	mem := NewMemory(4096, wordSize)
	engine := NewCoherenceEngine(mem, caches, tracing.NewMemorySink())
	engine.Strict = true

	return engine, caches, mem
}

var _ = Describe("CoherenceEngine", func() {
	var (
		engine *CoherenceEngine
		caches []*Cache
		mem    *Memory
	)

	BeforeEach(func() {
		engine, caches, mem = newTestEngine(4, 64, 4)
	})

	Describe("BusRd", func() {
		It("gives the requester Exclusive when nobody else holds the address", func() {
			resp := engine.broadcast(BusRd, 4, 0, "op1", 0)

			gomega.Expect(resp.NextState).To(gomega.Equal(Exclusive))
			gomega.Expect(resp.FromMemory).To(gomega.BeTrue())
		})

		It("gives the requester Shared and demotes an Exclusive peer to Shared", func() {
			mem.Write(4, 0x1111)
			caches[1].Install(4, 0x1111, Exclusive)

			resp := engine.broadcast(BusRd, 4, 0, "op1", 0)

			gomega.Expect(resp.NextState).To(gomega.Equal(Shared))
			gomega.Expect(caches[1].LineFor(4).State).To(gomega.Equal(Shared))
		})

		It("prefers a Modified supplier over an Owned one, regardless of iteration order", func() {
			caches[1].Install(4, 0xAAAA, Owned)
			caches[2].Install(4, 0xBBBB, Modified)

			resp := engine.broadcast(BusRd, 4, 0, "op1", 0)

			gomega.Expect(resp.Data).To(gomega.Equal(uint32(0xBBBB)))
			gomega.Expect(resp.Supplier).To(gomega.Equal(2))
			gomega.Expect(caches[2].LineFor(4).State).To(gomega.Equal(Owned))
			gomega.Expect(caches[1].LineFor(4).State).To(gomega.Equal(Owned))
		})

		It("leaves an Owned peer Owned and supplies its value when no Modified peer exists", func() {
			caches[1].Install(4, 0x2222, Owned)

			resp := engine.broadcast(BusRd, 4, 0, "op1", 0)

			gomega.Expect(resp.Data).To(gomega.Equal(uint32(0x2222)))
			gomega.Expect(resp.FromMemory).To(gomega.BeFalse())
			gomega.Expect(resp.NextState).To(gomega.Equal(Shared))
			gomega.Expect(caches[1].LineFor(4).State).To(gomega.Equal(Owned))
		})
	})

	Describe("BusRdX", func() {
		It("invalidates every peer and returns Modified", func() {
			caches[1].Install(4, 0x1111, Shared)
			caches[2].Install(4, 0x1111, Shared)

			resp := engine.broadcast(BusRdX, 4, 0, "op1", 0)

			gomega.Expect(resp.NextState).To(gomega.Equal(Modified))
			gomega.Expect(caches[1].LineFor(4).State).To(gomega.Equal(Invalid))
			gomega.Expect(caches[2].LineFor(4).State).To(gomega.Equal(Invalid))
		})

		It("fetches from a Modified peer and invalidates it", func() {
			caches[1].Install(4, 0x9999, Modified)

			resp := engine.broadcast(BusRdX, 4, 0, "op1", 0)

			gomega.Expect(resp.Data).To(gomega.Equal(uint32(0x9999)))
			gomega.Expect(resp.FromMemory).To(gomega.BeFalse())
			gomega.Expect(caches[1].LineFor(4).State).To(gomega.Equal(Invalid))
		})

		It("falls back to memory when no M/O peer supplies data", func() {
			mem.Write(4, 0x4444)
			caches[1].Install(4, 0x4444, Shared)

			resp := engine.broadcast(BusRdX, 4, 0, "op1", 0)

			gomega.Expect(resp.FromMemory).To(gomega.BeTrue())
			gomega.Expect(resp.Data).To(gomega.Equal(uint32(0x4444)))
		})
	})

	Describe("BusUpgr", func() {
		It("invalidates every peer and carries no data", func() {
			caches[1].Install(4, 0x1111, Shared)

			resp := engine.broadcast(BusUpgr, 4, 0, "op1", 0)

			gomega.Expect(resp.NextState).To(gomega.Equal(Modified))
			gomega.Expect(caches[1].LineFor(4).State).To(gomega.Equal(Invalid))
		})

		It("panics if it ever snoops a peer in Modified", func() {
			caches[1].Install(4, 0x1111, Modified)

			gomega.Expect(func() {
				engine.broadcast(BusUpgr, 4, 0, "op1", 0)
			}).To(gomega.Panic())
		})
	})

	Describe("BusWB", func() {
		It("writes the value to memory and returns an empty response", func() {
			resp := engine.broadcast(BusWB, 8, 0, "op1", 0x7777)

			gomega.Expect(mem.Read(8)).To(gomega.Equal(uint32(0x7777)))
			gomega.Expect(resp).To(gomega.Equal(Response{}))
		})
	})

	Describe("checkInvariants", func() {
		It("rejects two cores both holding Modified for the same address", func() {
			caches[0].Install(4, 1, Modified)
			caches[1].Install(4, 1, Modified)

			err := engine.checkInvariants(4)
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.(*InvariantViolation).Property).To(gomega.Equal("P1"))
		})

		It("rejects Modified coexisting with a Shared copy", func() {
			caches[0].Install(4, 1, Modified)
			caches[1].Install(4, 1, Shared)

			err := engine.checkInvariants(4)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		It("rejects memory staleness with no Modified/Owned copy outstanding", func() {
			caches[0].Install(4, 99, Shared)
			mem.Write(4, 1)

			err := engine.checkInvariants(4)
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.(*InvariantViolation).Property).To(gomega.Equal("P7"))
		})

		It("passes for a clean, unshared Exclusive line", func() {
			caches[0].Install(4, 1, Exclusive)
			mem.Write(4, 1)

			gomega.Expect(engine.checkInvariants(4)).To(gomega.Succeed())
		})
	})
})
