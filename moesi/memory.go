package moesi

// Memory is the flat, word-addressable store backing every cache. It is
// authoritative only for addresses no core holds in Modified or Owned
// (spec §3, invariant 6). It is written only by the coherence engine, in
// response to a BusWB; the harness may read and write it directly during
// setup and final inspection, but never while any Core.Do is in flight
// (spec §5, §6).
type Memory struct {
	words    []uint32
	wordSize uint64
}

// NewMemory allocates a Memory holding wordCount words of wordSize bytes
// each, all zeroed.
func NewMemory(wordCount int, wordSize uint64) *Memory {
	return &Memory{
		words:    make([]uint32, wordCount),
		wordSize: wordSize,
	}
}

// WordCount returns the number of addressable words.
func (m *Memory) WordCount() int {
	return len(m.words)
}

// index converts a byte address to a word index.
func (m *Memory) index(addr uint64) uint64 {
	return addr / m.wordSize
}

// Read returns the word stored at addr.
func (m *Memory) Read(addr uint64) uint32 {
	return m.words[m.index(addr)]
}

// Write stores value at addr. Only the coherence engine calls this during
// a running simulation (on BusWB); the harness may also call it directly
// during setup, before any Core.Do has been issued.
func (m *Memory) Write(addr uint64, value uint32) {
	m.words[m.index(addr)] = value
}
