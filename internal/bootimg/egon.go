// Package bootimg implements boot-image handling on top of a fel.Device: the
// eGON SPL header and checksum, the SPL staging engine and MMU discipline
// around it, the mkimage legacy U-Boot header, and the sunxi-SPL side
// channel for passing a boot-script address to U-Boot.
package bootimg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/allwinner-tools/go-fel/internal/felerr"
)

// eGONSignature is the 8-byte ASCII marker at offset 4 of an SPL header.
var eGONSignature = []byte("eGON.BT0")

// eGONSuccessSignature is written by a well-behaved SPL to its own header
// at the same offset on a clean return to FEL.
var eGONSuccessSignature = []byte("eGON.FEL")

const (
	egonSignatureOffset = 4
	egonChecksumOffset  = 12
	egonLengthOffset    = 16
	egonMinHeaderLen    = 32

	// checksumMagic is the constant term in the eGON checksum identity:
	// 2*stored - checksumMagic - sum(words) == 0.
	checksumMagic = 0x5F0A6C39
)

// ParseEgonHeader validates the eGON.BT0 signature and returns the stored
// checksum and declared payload length from an SPL blob's header.
func ParseEgonHeader(blob []byte) (storedChecksum, storedLen uint32, err error) {
	if len(blob) < egonMinHeaderLen {
		return 0, 0, &felerr.ProtocolError{Op: "parse eGON header",
			Err: fmt.Errorf("blob too short: %d bytes, need at least %d", len(blob), egonMinHeaderLen)}
	}
	if !bytes.Equal(blob[egonSignatureOffset:egonSignatureOffset+8], eGONSignature) {
		return 0, 0, &felerr.ProtocolError{Op: "parse eGON header",
			Err: fmt.Errorf("eGON.BT0 signature not found")}
	}
	storedChecksum = binary.LittleEndian.Uint32(blob[egonChecksumOffset : egonChecksumOffset+4])
	storedLen = binary.LittleEndian.Uint32(blob[egonLengthOffset : egonLengthOffset+4])
	return storedChecksum, storedLen, nil
}

// VerifyEgonChecksum checks the identity 2*storedChecksum - checksumMagic -
// sum(32-bit little-endian words of payload) == 0 (mod 2^32), where payload
// is expected to already be truncated to the declared length.
func VerifyEgonChecksum(payload []byte, storedChecksum uint32) error {
	if len(payload)%4 != 0 {
		return &felerr.ProtocolError{Op: "verify eGON checksum",
			Err: fmt.Errorf("payload length %d is not a multiple of 4", len(payload))}
	}
	acc := 2*storedChecksum - checksumMagic
	for i := 0; i < len(payload); i += 4 {
		acc -= binary.LittleEndian.Uint32(payload[i : i+4])
	}
	if acc != 0 {
		return &felerr.ProtocolError{Op: "verify eGON checksum",
			Err: fmt.Errorf("checksum mismatch (residual 0x%08x)", acc)}
	}
	return nil
}
