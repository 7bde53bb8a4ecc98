// Package fel implements the AW-USB envelope and the FEL command surface
// layered on top of a raw USB bulk transport.
package fel

import (
	"encoding/binary"
	"fmt"

	"github.com/allwinner-tools/go-fel/internal/felerr"
	"github.com/allwinner-tools/go-fel/internal/usbtransport"
)

// AW-USB request direction codes.
const (
	usbRead  = 0x11 // host reads from device
	usbWrite = 0x12 // host writes to device
)

const (
	awRequestSize  = 32
	awResponseSize = 13
)

var awRequestSignature = [8]byte{'A', 'W', 'U', 'C'}
var awResponsePrefix = []byte("AWUS")

// awRequest builds the 32-byte AW-USB request envelope: 8-byte "AWUC"
// signature, little-endian length, constant 0x0c000000, little-endian
// direction code, duplicate little-endian length, 10 bytes of zero padding.
func awRequest(direction uint16, length uint32) []byte {
	buf := make([]byte, awRequestSize)
	copy(buf[0:8], awRequestSignature[:])
	binary.LittleEndian.PutUint32(buf[8:12], length)
	binary.LittleEndian.PutUint32(buf[12:16], 0x0c000000)
	binary.LittleEndian.PutUint16(buf[16:18], direction)
	binary.LittleEndian.PutUint32(buf[18:22], length)
	// buf[22:32] stays zero padding.
	return buf
}

// awWrite emits a WRITE envelope, sends payload on OUT, then reads and
// verifies a 13-byte AWUS response envelope on IN.
func awWrite(t usbtransport.Transport, payload []byte, progress usbtransport.ProgressFunc) error {
	req := awRequest(usbWrite, uint32(len(payload)))
	if err := t.Send(req, nil); err != nil {
		return err
	}
	if err := t.Send(payload, progress); err != nil {
		return err
	}
	return awReadResponse(t)
}

// awRead emits a READ envelope, reads len(buf) bytes from IN into buf, then
// reads and verifies the AWUS response.
func awRead(t usbtransport.Transport, buf []byte, progress usbtransport.ProgressFunc) error {
	req := awRequest(usbRead, uint32(len(buf)))
	if err := t.Send(req, nil); err != nil {
		return err
	}
	if err := t.Recv(buf, progress); err != nil {
		return err
	}
	return awReadResponse(t)
}

// awReadResponse reads the 13-byte response envelope and checks its "AWUS"
// prefix; the remaining bytes are consumed but not otherwise interpreted.
func awReadResponse(t usbtransport.Transport) error {
	resp := make([]byte, awResponseSize)
	if err := t.Recv(resp, nil); err != nil {
		return err
	}
	if !hasPrefix(resp, awResponsePrefix) {
		return &felerr.TransportError{Op: "AW-USB response",
			Err: fmt.Errorf("bad signature: got %q, want prefix %q", resp[:4], awResponsePrefix)}
	}
	return nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}
