package moesi

import "fmt"

// ConfigError reports an invalid construction-time parameter (N, C, W, or
// B). It is not recoverable; the caller should fix the configuration and
// reconstruct the system.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("moesi: invalid configuration for %s: %s", e.Field, e.Msg)
}

// AddressError reports an address passed to Core.Do that is out of range
// or misaligned. The operation it accompanies has no effect on cache or
// memory.
type AddressError struct {
	Addr uint64
	Msg  string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("moesi: address 0x%x: %s", e.Addr, e.Msg)
}

// InvariantViolation reports that one of the global coherence invariants
// (spec §3, properties P1-P8) was found false after a bus transaction.
// This is a programming-model violation: the simulator's state can no
// longer be trusted. CheckInvariants returns it as an error; with
// CoherenceEngine.Strict set, broadcast panics with it instead.
type InvariantViolation struct {
	Property string
	Addr     uint64
	Detail   string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("moesi: invariant %s violated at address 0x%x: %s",
		e.Property, e.Addr, e.Detail)
}
