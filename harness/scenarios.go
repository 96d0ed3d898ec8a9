package harness

import (
	"fmt"
	"sync"

	"github.com/sarchlab/moesi/moesi"
)

// Scenario is one named, runnable end-to-end harness scenario.
type Scenario struct {
	Name        string
	Description string
	Run         func(s *System) error
}

// Scenarios lists every named scenario cmd/moesisim can run: the six of
// spec §8 in the order it presents them (the sixth doubling as the
// original source's runAtomicADDTest), followed by the original source's
// broader regression (runReadWriteTest).
var Scenarios = []Scenario{
	{"shared-creation", "two cores load the same address into Shared", RunSharedCreation},
	{"bus-upgr", "a Shared line is upgraded to Modified via BusUpgr", RunBusUpgrade},
	{"modified-to-owned", "a snoop read demotes Modified to Owned", RunModifiedToOwned},
	{"write-back-conflict", "a conflict miss write-backs a dirty victim", RunWriteBackConflict},
	{"cas", "a successful then a failed compare-and-swap", RunCAS},
	{"concurrent-atomic-add", "four cores race to increment a shared counter", RunConcurrentAtomicAdd},
	{"regression", "the full read/write regression from the original source", RunReadWriteRegression},
}

func mustDo(core *moesi.Core, req moesi.Request) moesi.Result {
	res, err := core.Do(req)
	if err != nil {
		panic(fmt.Sprintf("moesi: scenario issued an invalid request: %v", err))
	}

	return res
}

// RunSharedCreation is spec §8 scenario 1: memory[1]=0x1111, core2 and
// core3 both Load(4), ending in Shared.
func RunSharedCreation(s *System) error {
	s.Memory.Write(4, 0x1111)

	mustDo(s.Cores[2], moesi.Request{Op: moesi.Load, Addr: 4})
	mustDo(s.Cores[3], moesi.Request{Op: moesi.Load, Addr: 4})

	return s.CheckInvariants(4)
}

// RunBusUpgrade is spec §8 scenario 2, continuing scenario 1: core0 loads
// (joining Shared) then stores, upgrading to Modified and invalidating
// the other sharers.
func RunBusUpgrade(s *System) error {
	if err := RunSharedCreation(s); err != nil {
		return err
	}

	mustDo(s.Cores[0], moesi.Request{Op: moesi.Load, Addr: 4})
	mustDo(s.Cores[0], moesi.Request{Op: moesi.Store, Addr: 4, Value: 0x9999})

	return s.CheckInvariants(4)
}

// RunModifiedToOwned is spec §8 scenario 3, continuing scenario 2: core1
// loads, demoting core0 from Modified to Owned.
func RunModifiedToOwned(s *System) error {
	if err := RunBusUpgrade(s); err != nil {
		return err
	}

	mustDo(s.Cores[1], moesi.Request{Op: moesi.Load, Addr: 4})

	return s.CheckInvariants(4)
}

// RunWriteBackConflict is spec §8 scenario 4, continuing scenario 3:
// addresses 4 and 0x104 share a cache index (with CacheSize==64), so
// core0's dirty line for address 4 must be written back to memory before
// address 0x104 can be installed.
func RunWriteBackConflict(s *System) error {
	if err := RunModifiedToOwned(s); err != nil {
		return err
	}

	s.Memory.Write(0x104, 0xAAAA)

	mustDo(s.Cores[0], moesi.Request{Op: moesi.Load, Addr: 0x104})

	return s.CheckInvariants(0x104)
}

// RunCAS is spec §8 scenario 5: a successful CAS followed by a failed
// one on the address it just wrote.
func RunCAS(s *System) error {
	s.Memory.Write(1000, 7)

	res := mustDo(s.Cores[0], moesi.Request{
		Op: moesi.Atomic, Kind: moesi.CAS, Addr: 1000, Value: 42, Expected: 7,
	})
	if !res.CASSucceeded || res.Value != 42 {
		return fmt.Errorf("moesi: scenario cas: expected first CAS to succeed with 42, got %+v", res)
	}

	res = mustDo(s.Cores[1], moesi.Request{
		Op: moesi.Atomic, Kind: moesi.CAS, Addr: 1000, Value: 99, Expected: 7,
	})
	if res.CASSucceeded || res.Value != 42 {
		return fmt.Errorf("moesi: scenario cas: expected second CAS to fail leaving 42, got %+v", res)
	}

	return s.CheckInvariants(1000)
}

// RunConcurrentAtomicAdd is spec §8 scenario 6 / the original source's
// runAtomicADDTest: every core runs Atomic_Add(addr, 1) concurrently, one
// goroutine per core (spec §5's "one schedulable unit per core").
func RunConcurrentAtomicAdd(s *System) error {
	const addr = 1000

	s.Memory.Write(addr, 0)
	s.LogRuntimeInfo()

	var wg sync.WaitGroup

	for _, core := range s.Cores {
		wg.Add(1)

		go func(core *moesi.Core) {
			defer wg.Done()

			mustDo(core, moesi.Request{Op: moesi.Atomic, Kind: moesi.Add, Addr: addr, Value: 1})
		}(core)
	}

	wg.Wait()

	return s.CheckInvariants(addr)
}

// RunReadWriteRegression replays the full read/write regression from
// original_source/moesi.cpp's runReadWriteTest, exercising every state
// transition pair the protocol defines. It assumes a System built with
// CacheSize==64 so that address 4 and 0x104 collide (spec §8 scenario 4).
func RunReadWriteRegression(s *System) error {
	seed := map[uint64]uint32{
		4: 0x1111, 8: 0x2222, 12: 0x3333, 16: 0x4444, 20: 0x5555,
		100: 0xABCD, 200: 0x1000, 204: 0x2000, 208: 0x3000,
		0x104: 0xAAAA, 300: 0xBBBB, 400: 0xCCCC, 500: 0xDDDD, 600: 0xEEEE,
	}
	for addr, v := range seed {
		s.Memory.Write(addr, v)
	}

	load := func(core int, addr uint64) moesi.Result {
		return mustDo(s.Cores[core], moesi.Request{Op: moesi.Load, Addr: addr})
	}
	store := func(core int, addr uint64, v uint32) moesi.Result {
		return mustDo(s.Cores[core], moesi.Request{Op: moesi.Store, Addr: addr, Value: v})
	}

	load(2, 4)
	load(3, 4)
	load(0, 4)
	store(0, 4, 0x9999)
	store(1, 8, 0xABCD)
	load(0, 4)
	load(2, 16)
	store(2, 16, 0xDDDD)
	store(3, 12, 0x5678)
	load(0, 12)
	load(1, 4)
	load(2, 4)
	store(0, 4, 0xEEEE)
	store(0, 4, 0xFFFF)
	load(0, 0x104)
	store(0, 0x104, 0xBBBB)
	store(0, 4, 0xCCCC)
	load(1, 20)
	store(2, 20, 0x8888)
	load(0, 8)
	load(1, 8)
	store(2, 8, 0x6666)
	load(0, 100)
	store(0, 100, 0xAAAA)

	if res := load(0, 100); res.Value != 0xAAAA {
		return fmt.Errorf("moesi: regression: read-after-write mismatch: got 0x%x", res.Value)
	}

	load(1, 200)
	load(2, 204)
	load(3, 208)
	load(0, 300)
	load(1, 300)
	load(2, 400)
	store(3, 400, 0x5555)
	store(0, 500, 0x6666)
	load(1, 500)
	load(2, 500)
	store(3, 500, 0x7777)
	load(0, 600)
	store(1, 600, 0x8888)
	load(2, 600)
	store(3, 600, 0x9999)

	if res := load(0, 600); res.Value != 0x9999 {
		return fmt.Errorf("moesi: regression: final read mismatch: got 0x%x", res.Value)
	}

	for addr := range seed {
		if err := s.CheckInvariants(addr); err != nil {
			return err
		}
	}

	return s.CheckInvariants(0x104)
}
