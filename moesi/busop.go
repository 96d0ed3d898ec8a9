package moesi

// BusOp is one of the four bus transactions a core can issue.
type BusOp int

const (
	// BusRd is a read request: the requester wants a readable copy.
	BusRd BusOp = iota
	// BusRdX is a read-for-ownership request: the requester wants an
	// exclusive, writable copy and every other copy must be invalidated.
	BusRdX
	// BusUpgr invalidates every other copy without transferring data; the
	// requester already holds a readable copy of the same value.
	BusUpgr
	// BusWB is a one-way write-back announcement: the initiator is
	// flushing a dirty line to memory. It carries no response.
	BusWB
)

func (op BusOp) String() string {
	switch op {
	case BusRd:
		return "BusRd"
	case BusRdX:
		return "BusRdX"
	case BusUpgr:
		return "BusUpgr"
	case BusWB:
		return "BusWB"
	default:
		return "BusOp(?)"
	}
}
