package bootimg

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildEgonPayload constructs a 32-byte eGON-signed payload whose word 3
// (the stored checksum) is chosen so VerifyEgonChecksum passes. Words 1-2
// (the signature), 3 (the checksum) and 4 (the stored length) are header
// fields, so the values given for them are overwritten.
func buildEgonPayload(words [8]uint32) []byte {
	buf := make([]byte, 32)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:4*i+4], w)
	}
	copy(buf[4:12], "eGON.BT0")
	binary.LittleEndian.PutUint32(buf[16:20], 32) // stored length

	// Solve for the checksum word (index 3) such that the identity holds
	// with the checksum word itself included in the sum.
	var sumOthers uint32
	for i := 0; i < 8; i++ {
		if i == 3 {
			continue
		}
		sumOthers += binary.LittleEndian.Uint32(buf[4*i : 4*i+4])
	}
	// 2*c - magic - (sumOthers + c) == 0  =>  c == magic + sumOthers
	checksum := checksumMagic + sumOthers
	binary.LittleEndian.PutUint32(buf[12:16], checksum)
	return buf
}

func TestEgonChecksumRoundTrip(t *testing.T) {
	words := [8]uint32{0x11111111, 0x22222222, 0x33333333, 0, 0, 0x44444444, 0x55555555, 0x66666666}
	payload := buildEgonPayload(words)

	storedChecksum, storedLen, err := ParseEgonHeader(payload)
	require.NoError(t, err)
	assert.EqualValues(t, 32, storedLen)

	require.NoError(t, VerifyEgonChecksum(payload[:storedLen], storedChecksum))
}

func TestEgonChecksumDetectsCorruption(t *testing.T) {
	words := [8]uint32{0x11111111, 0x22222222, 0x33333333, 0, 0, 0x44444444, 0x55555555, 0x66666666}
	payload := buildEgonPayload(words)
	storedChecksum, _, err := ParseEgonHeader(payload)
	require.NoError(t, err)

	payload[20] ^= 0xFF // flip a byte outside the checksum/length fields
	assert.Error(t, VerifyEgonChecksum(payload, storedChecksum))
}

func TestParseEgonHeaderRejectsMissingSignature(t *testing.T) {
	buf := make([]byte, 32)
	_, _, err := ParseEgonHeader(buf)
	assert.Error(t, err)
}
