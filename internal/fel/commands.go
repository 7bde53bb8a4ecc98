package fel

import (
	"encoding/binary"
	"fmt"

	"github.com/allwinner-tools/go-fel/internal/felerr"
)

// Version issues FEL VERSION with zero address/length, reads the 32-byte
// reply, and consumes the trailing status bytes. The raw SoC id field is
// post-processed into its effective 16-bit form; other multi-byte fields
// are decoded little-endian.
func (d *Device) Version() (Version, error) {
	if err := sendFELRequest(d.transport, reqVersion, 0, 0); err != nil {
		return Version{}, err
	}
	reply := make([]byte, 32)
	if err := awRead(d.transport, reply, nil); err != nil {
		return Version{}, err
	}
	if err := readFELStatus(d.transport); err != nil {
		return Version{}, err
	}

	var v Version
	copy(v.Signature[:], reply[0:8])
	v.SocIDRaw = binary.LittleEndian.Uint32(reply[8:12])
	v.SocID = uint16((v.SocIDRaw >> 8) & 0xFFFF)
	v.Unknown = binary.LittleEndian.Uint32(reply[12:16])
	v.Protocol = binary.LittleEndian.Uint16(reply[16:18])
	v.Unknown12 = reply[18]
	v.Unknown13 = reply[19]
	v.Scratchpad = binary.LittleEndian.Uint32(reply[20:24])
	return v, nil
}

// Read issues FEL READ for len(buf) bytes at addr, filling buf, and
// consumes the status bytes.
func (d *Device) Read(addr uint32, buf []byte) error {
	if err := sendFELRequest(d.transport, reqRead, addr, uint32(len(buf))); err != nil {
		return err
	}
	if err := awRead(d.transport, buf, d.Progress); err != nil {
		return err
	}
	return readFELStatus(d.transport)
}

// Write issues FEL WRITE of data at addr, after checking the overlap
// interlock against any previously loaded U-Boot image, and consumes the
// status bytes.
//
// The overlap test mirrors the original tool's: it refuses a write whose
// range [addr, addr+len) satisfies addr <= UBootEntry+UBootSize &&
// addr+len >= UBootEntry, which also refuses the exactly-abutting write
// addr == UBootEntry+UBootSize. This is kept for behavioral parity rather
// than loosened to a strict inequality.
func (d *Device) Write(addr uint32, data []byte) error {
	if d.UBootSize > 0 {
		length := uint32(len(data))
		ubootEnd := d.UBootEntry + d.UBootSize
		if addr <= ubootEnd && addr+length >= d.UBootEntry {
			return &felerr.InterlockError{
				Addr: addr, Len: length,
				UBootEntry: d.UBootEntry, UBootSize: d.UBootSize,
			}
		}
	}
	if err := sendFELRequest(d.transport, reqWrite, addr, uint32(len(data))); err != nil {
		return err
	}
	if err := awWrite(d.transport, data, d.Progress); err != nil {
		return err
	}
	return readFELStatus(d.transport)
}

// Execute issues FEL EXECUTE at addr with zero length and consumes the
// status bytes. It does not return until the device-side code has run a
// return-to-link-register branch, since that is what posts the status.
func (d *Device) Execute(addr uint32) error {
	if err := sendFELRequest(d.transport, reqExecute, addr, 0); err != nil {
		return err
	}
	return readFELStatus(d.transport)
}

// ReadExact is a convenience wrapper allocating a buffer of the requested
// length and returning it on success.
func (d *Device) ReadExact(addr uint32, length int) ([]byte, error) {
	buf := make([]byte, length)
	if err := d.Read(addr, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Fill writes length copies of value at offset.
func (d *Device) Fill(offset uint32, length int, value byte) error {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = value
	}
	return d.Write(offset, buf)
}

// Clear fills length bytes at offset with zero.
func (d *Device) Clear(offset uint32, length int) error {
	return d.Fill(offset, length, 0)
}

// SetUBootFootprint arms the write interlock: a later Write overlapping
// [entry, entry+size] will be refused.
func (d *Device) SetUBootFootprint(entry, size uint32) {
	d.UBootEntry = entry
	d.UBootSize = size
}

func (v Version) String() string {
	return fmt.Sprintf("soc_id=0x%04x protocol=%d scratchpad=0x%08x", v.SocID, v.Protocol, v.Scratchpad)
}
