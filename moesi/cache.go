package moesi

import "fmt"

// Cache is a fixed-length, direct-mapped array of cache lines private to
// one core. There is no replacement policy to choose: the occupant at
// Index(addr) is the only possible victim.
type Cache struct {
	CoreID   int
	WordSize uint64
	lines    []CacheLine
}

// NewCache allocates a Cache with size lines, all Invalid.
func NewCache(coreID int, size int, wordSize uint64) *Cache {
	lines := make([]CacheLine, size)
	for i := range lines {
		lines[i] = CacheLine{Tag: NoTag, State: Invalid}
	}

	return &Cache{CoreID: coreID, WordSize: wordSize, lines: lines}
}

// Size returns the number of lines in the cache.
func (c *Cache) Size() int {
	return len(c.lines)
}

// Index computes the direct-mapped slot for addr: (addr / WordSize) mod
// Size.
func (c *Cache) Index(addr uint64) int {
	return int((addr / c.WordSize) % uint64(len(c.lines)))
}

// Line returns a pointer to the line at idx, so callers can read and
// mutate it in place. idx must be in [0, Size()).
func (c *Cache) Line(idx int) *CacheLine {
	return &c.lines[idx]
}

// LineFor is a convenience combining Index and Line for addr.
func (c *Cache) LineFor(addr uint64) *CacheLine {
	return c.Line(c.Index(addr))
}

// Install overwrites the line at Index(addr), unconditionally. Used to
// fill a line after a bus transaction.
func (c *Cache) Install(addr uint64, value uint32, state State) {
	line := c.LineFor(addr)
	line.Tag = addr
	line.Value = value
	line.State = state
}

// SetState transitions the line at Index(addr) to state. The caller must
// ensure the line's tag already equals addr (the state machine never
// calls this on a line it has not already validated the tag of).
func (c *Cache) SetState(addr uint64, state State) {
	line := c.LineFor(addr)
	line.State = state
}

// String renders every non-invalid line, one per line, in the format the
// original scenario harness prints for final inspection.
func (c *Cache) String() string {
	out := ""

	for i, line := range c.lines {
		if !line.State.Valid() {
			continue
		}

		out += fmt.Sprintf("core %d: cache line %d: %s\n", c.CoreID, i, line.String())
	}

	return out
}
