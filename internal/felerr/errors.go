// Package felerr defines the error taxonomy shared by every FEL driver layer.
package felerr

import "fmt"

// TransportError covers USB transfer failures, timeouts, and envelope
// signature mismatches.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fel: transport: %s", e.Op)
	}
	return fmt.Sprintf("fel: transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError covers malformed eGON/mkimage headers, checksum mismatches,
// architecture mismatches, and SPL return signature mismatches.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fel: protocol: %s", e.Op)
	}
	return fmt.Sprintf("fel: protocol: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ConfigurationError covers unsupported SoCs, an MMU in an unexpected state,
// and oversize SPL/thunk payloads.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fel: configuration: %s", e.Op)
	}
	return fmt.Sprintf("fel: configuration: %s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InterlockError reports a write that overlaps an already-loaded U-Boot image.
type InterlockError struct {
	Addr, Len, UBootEntry, UBootSize uint32
}

func (e *InterlockError) Error() string {
	return fmt.Sprintf("fel: write [0x%08x, 0x%08x) overlaps loaded U-Boot image [0x%08x, 0x%08x]",
		e.Addr, uint64(e.Addr)+uint64(e.Len), e.UBootEntry, uint64(e.UBootEntry)+uint64(e.UBootSize))
}

// UsageError covers unknown commands, missing arguments, and unreadable files.
type UsageError struct {
	Op  string
	Err error
}

func (e *UsageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fel: usage: %s", e.Op)
	}
	return fmt.Sprintf("fel: usage: %s: %v", e.Op, e.Err)
}

func (e *UsageError) Unwrap() error { return e.Err }
