package fel

import (
	"encoding/binary"

	"github.com/allwinner-tools/go-fel/internal/usbtransport"
)

// FEL request codes.
const (
	reqVersion = 0x001
	reqWrite   = 0x101
	reqExecute = 0x102
	reqRead    = 0x103
)

const (
	felRequestSize = 16
	felStatusSize  = 8
)

// felRequest builds the 16-byte FEL request: little-endian code, address,
// length, and a zero trailer word.
func felRequest(code uint32, addr, length uint32) []byte {
	buf := make([]byte, felRequestSize)
	binary.LittleEndian.PutUint32(buf[0:4], code)
	binary.LittleEndian.PutUint32(buf[4:8], addr)
	binary.LittleEndian.PutUint32(buf[8:12], length)
	// buf[12:16] stays zero.
	return buf
}

// sendFELRequest performs the AW-level write of a FEL request header. It
// does not send the optional payload or consume the status bytes; callers
// string those together per command.
func sendFELRequest(t usbtransport.Transport, code uint32, addr, length uint32) error {
	return awWrite(t, felRequest(code, addr, length), nil)
}

// readFELStatus consumes the 8 opaque FEL status bytes posted after every
// FEL command.
func readFELStatus(t usbtransport.Transport) error {
	status := make([]byte, felStatusSize)
	return awRead(t, status, nil)
}
