package moesi

import (
	. "github.com/onsi/ginkgo/v2"
	gomega "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/moesi/internal/idgen"
)

func newTestCore(bus *MockBus) *Core {
	cache := NewCache(0, 4, 4)

	return &Core{ID: 0, cache: cache, engine: bus, addrBound: 64, idgen: idgen.NewSequential()}
}

var _ = Describe("Core.Do", func() {
	var (
		mockCtrl *gomock.Controller
		bus      *MockBus
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		bus = NewMockBus(mockCtrl)

		bus.EXPECT().Lock().AnyTimes()
		bus.EXPECT().Unlock().AnyTimes()
		bus.EXPECT().Emit(gomock.Any()).AnyTimes()
	})

	Describe("Load", func() {
		It("returns the cached value directly on a hit without touching the bus", func() {
			core := newTestCore(bus)
			core.cache.Install(8, 0x55, Exclusive)

			result, err := core.Do(Request{Op: Load, Addr: 8})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.Value).To(gomega.Equal(uint32(0x55)))
		})

		It("issues BusRd and installs the response on a miss", func() {
			core := newTestCore(bus)

			bus.EXPECT().
				broadcast(BusRd, uint64(8), 0, gomock.Any(), uint32(0)).
				Return(Response{Data: 0x99, NextState: Exclusive, FromMemory: true})

			result, err := core.Do(Request{Op: Load, Addr: 8})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.Value).To(gomega.Equal(uint32(0x99)))
			gomega.Expect(core.cache.LineFor(8).State).To(gomega.Equal(Exclusive))
		})

		It("writes back a dirty victim before fetching a conflicting address", func() {
			core := newTestCore(bus)
			core.cache.Install(8, 0x77, Modified) // shares Index(8)==Index(24) with cache size 4

			gomock.InOrder(
				bus.EXPECT().
					broadcast(BusWB, uint64(8), 0, gomock.Any(), uint32(0x77)).
					Return(Response{}),
				bus.EXPECT().
					broadcast(BusRd, uint64(24), 0, gomock.Any(), uint32(0)).
					Return(Response{Data: 0, NextState: Exclusive, FromMemory: true}),
			)

			_, err := core.Do(Request{Op: Load, Addr: 24})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
		})
	})

	Describe("Store", func() {
		It("overwrites directly when already Modified", func() {
			core := newTestCore(bus)
			core.cache.Install(8, 0x1, Modified)

			result, err := core.Do(Request{Op: Store, Addr: 8, Value: 0x2})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.Value).To(gomega.Equal(uint32(0x2)))
			gomega.Expect(core.cache.LineFor(8).State).To(gomega.Equal(Modified))
		})

		It("issues BusUpgr when Shared, then overwrites with the store value", func() {
			core := newTestCore(bus)
			core.cache.Install(8, 0x1, Shared)

			bus.EXPECT().
				broadcast(BusUpgr, uint64(8), 0, gomock.Any(), uint32(0)).
				Return(Response{NextState: Modified})

			result, err := core.Do(Request{Op: Store, Addr: 8, Value: 0x42})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.Value).To(gomega.Equal(uint32(0x42)))
			gomega.Expect(core.cache.LineFor(8).State).To(gomega.Equal(Modified))
		})

		It("issues BusRdX on a miss and overwrites the fetched value", func() {
			core := newTestCore(bus)

			bus.EXPECT().
				broadcast(BusRdX, uint64(8), 0, gomock.Any(), uint32(0)).
				Return(Response{Data: 0xDEAD, NextState: Modified})

			result, err := core.Do(Request{Op: Store, Addr: 8, Value: 0x42})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.Value).To(gomega.Equal(uint32(0x42)))
		})
	})

	Describe("Atomic", func() {
		It("applies CAS against the hit value and transitions to Modified", func() {
			core := newTestCore(bus)
			core.cache.Install(8, 7, Exclusive)

			result, err := core.Do(Request{Op: Atomic, Kind: CAS, Addr: 8, Value: 42, Expected: 7})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.CASSucceeded).To(gomega.BeTrue())
			gomega.Expect(result.Value).To(gomega.Equal(uint32(42)))
			gomega.Expect(core.cache.LineFor(8).State).To(gomega.Equal(Modified))
		})

		It("reports CAS failure without mutating the line's value", func() {
			core := newTestCore(bus)
			core.cache.Install(8, 7, Exclusive)

			result, err := core.Do(Request{Op: Atomic, Kind: CAS, Addr: 8, Value: 42, Expected: 99})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.CASSucceeded).To(gomega.BeFalse())
			gomega.Expect(result.Value).To(gomega.Equal(uint32(7)))
		})

		It("fetches via BusRdX on a miss before applying Add", func() {
			core := newTestCore(bus)

			bus.EXPECT().
				broadcast(BusRdX, uint64(8), 0, gomock.Any(), uint32(0)).
				Return(Response{Data: 10, NextState: Modified})

			result, err := core.Do(Request{Op: Atomic, Kind: Add, Addr: 8, Value: 5})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(result.Value).To(gomega.Equal(uint32(15)))
		})
	})

	Describe("validation", func() {
		It("rejects an out-of-range address without touching the bus", func() {
			core := newTestCore(bus)

			_, err := core.Do(Request{Op: Load, Addr: 1000})

			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		It("rejects a misaligned address", func() {
			core := newTestCore(bus)

			_, err := core.Do(Request{Op: Load, Addr: 1})

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
