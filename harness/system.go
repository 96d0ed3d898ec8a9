// Package harness wires together a moesi.Memory, a moesi.CoherenceEngine,
// and a fixed set of moesi.Core instances into a runnable system, and
// implements the scripted scenarios of spec §8 on top of it (grounded on
// github.com/sarchlab/akita/v4/mem/acceptancetests, which plays the same
// role for akita's own cache implementations: fixed, end-to-end scenario
// tests driving a fully wired component).
package harness

import (
	"log"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/moesi/internal/idgen"
	"github.com/sarchlab/moesi/moesi"
	"github.com/sarchlab/moesi/tracing"
)

// Config is the construction-time parameter set of spec §6: number of
// cores, lines per cache, words of memory, and bytes per word.
type Config struct {
	Cores     int
	CacheSize int
	MemWords  int
	WordSize  uint64 // bytes; 0 defaults to 4

	// Strict enables per-transaction invariant checking in the engine
	// (spec §7). Off when left zero-valued; the scenario tests and
	// cmd/moesisim set it.
	Strict bool

	// Sink receives every trace event. Defaults to tracing.NullSink{}.
	Sink tracing.Sink

	// Concurrent selects the xid-backed ID generator instead of the
	// sequential counter; set for scenarios that call Core.Do from more
	// than one goroutine (spec §8 scenario 6).
	Concurrent bool
}

// System is a fully wired MOESI simulation: one Memory, one
// CoherenceEngine, and Config.Cores Cores.
type System struct {
	Config  Config
	Memory  *moesi.Memory
	Engine  *moesi.CoherenceEngine
	Cores   []*moesi.Core
	Sink    tracing.Sink
	AddrMax uint64 // W * B
}

func (cfg Config) validate() error {
	if cfg.Cores <= 0 {
		return &moesi.ConfigError{Field: "Cores", Msg: "must be positive"}
	}

	if cfg.CacheSize <= 0 {
		return &moesi.ConfigError{Field: "CacheSize", Msg: "must be positive"}
	}

	if cfg.MemWords <= 0 {
		return &moesi.ConfigError{Field: "MemWords", Msg: "must be positive"}
	}

	if cfg.WordSize != 0 && cfg.WordSize != 1 && cfg.WordSize != 2 &&
		cfg.WordSize != 4 && cfg.WordSize != 8 {
		return &moesi.ConfigError{Field: "WordSize", Msg: "must be 1, 2, 4, or 8 bytes"}
	}

	return nil
}

// NewSystem validates cfg and builds a System. WordSize defaults to 4 and
// Sink defaults to a no-op sink when left zero-valued.
func NewSystem(cfg Config) (*System, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.WordSize == 0 {
		cfg.WordSize = 4
	}

	if cfg.Sink == nil {
		cfg.Sink = tracing.NullSink{}
	}

	memory := moesi.NewMemory(cfg.MemWords, cfg.WordSize)

	caches := make([]*moesi.Cache, cfg.Cores)
	for i := range caches {
		caches[i] = moesi.NewCache(i, cfg.CacheSize, cfg.WordSize)
	}

	engine := moesi.NewCoherenceEngine(memory, caches, cfg.Sink)
	engine.Strict = cfg.Strict

	var gen idgen.Generator
	if cfg.Concurrent {
		gen = idgen.NewConcurrent()
	} else {
		gen = idgen.NewSequential()
	}

	addrMax := uint64(cfg.MemWords) * cfg.WordSize

	cores := make([]*moesi.Core, cfg.Cores)
	for i, cache := range caches {
		cores[i] = moesi.NewCore(i, cache, engine, addrMax, gen)
	}

	return &System{
		Config: cfg, Memory: memory, Engine: engine, Cores: cores,
		Sink: cfg.Sink, AddrMax: addrMax,
	}, nil
}

// CheckInvariants runs the full P1-P8 invariant check (spec §8) for addr
// across every cache and memory.
func (s *System) CheckInvariants(addr uint64) error {
	return s.Engine.CheckInvariants(addr)
}

// LogRuntimeInfo logs the host CPU count and goroutine count (from the
// runtime package) and the process's resident memory (via gopsutil),
// once, ahead of the concurrent atomic scenario (spec §8
// scenario 6) where that context is most useful for interpreting
// scheduling behavior.
func (s *System) LogRuntimeInfo() {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Printf("moesi: runtime info unavailable: %v", err)
		return
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		log.Printf("moesi: runtime info unavailable: %v", err)
		return
	}

	log.Printf("moesi: host has %d logical CPUs, %d goroutines scheduled, "+
		"%d bytes resident",
		runtime.NumCPU(), runtime.NumGoroutine(), mem.RSS)
}
