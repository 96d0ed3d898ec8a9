package moesi

// Request is a single CPU operation handed to Core.Do (spec §4.2, §6).
type Request struct {
	Op   Op
	Kind AtomicKind // meaningful only when Op == Atomic

	Addr uint64

	// Value is the value to store (Op == Store) or the operand to apply
	// (Op == Atomic). Ignored for Load.
	Value uint32
	// Expected is the comparison value for Atomic(CAS). Ignored
	// otherwise.
	Expected uint32
}

// Result is what Core.Do returns on success.
type Result struct {
	// Value is the value the core's line holds once the operation has
	// completed: the loaded value for Load, the stored value for Store,
	// and the post-operation value for Atomic (including on a failed
	// CAS, where it equals the pre-operation value).
	Value uint32
	// CASSucceeded is meaningful only for Request{Op: Atomic, Kind: CAS}:
	// it reports whether the compare succeeded. A failed compare is not
	// an error (spec §7); Value still reflects the unchanged line value.
	CASSucceeded bool
}
