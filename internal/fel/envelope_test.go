package fel

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAwWriteTrace asserts property 1 from the testable-properties list: a
// mock transport records exactly one 32-byte envelope whose length fields
// equal len(p), followed by p bytes on OUT, followed by a 13-byte read.
func TestAwWriteTrace(t *testing.T) {
	ft := &fakeTransport{}
	ft.queueRecv(okAWUS())

	payload := []byte("hello, brom")
	require.NoError(t, awWrite(ft, payload, nil))

	require.Len(t, ft.sent, 2)
	envelope := ft.sent[0]
	require.Len(t, envelope, awRequestSize)
	assert.Equal(t, "AWUC", string(envelope[0:4]))
	assert.EqualValues(t, len(payload), binary.LittleEndian.Uint32(envelope[8:12]))
	assert.EqualValues(t, 0x0c000000, binary.LittleEndian.Uint32(envelope[12:16]))
	assert.EqualValues(t, usbWrite, binary.LittleEndian.Uint16(envelope[16:18]))
	assert.EqualValues(t, len(payload), binary.LittleEndian.Uint32(envelope[18:22]))
	assert.Equal(t, payload, ft.sent[1])
}

func TestAwReadTrace(t *testing.T) {
	ft := &fakeTransport{}
	want := []byte("some-device-data")
	ft.queueRecv(want)
	ft.queueRecv(okAWUS())

	buf := make([]byte, len(want))
	require.NoError(t, awRead(ft, buf, nil))
	assert.Equal(t, want, buf)

	require.Len(t, ft.sent, 1)
	envelope := ft.sent[0]
	assert.EqualValues(t, usbRead, binary.LittleEndian.Uint16(envelope[16:18]))
	assert.EqualValues(t, len(want), binary.LittleEndian.Uint32(envelope[8:12]))
}

func TestAwResponseBadSignatureIsFatal(t *testing.T) {
	ft := &fakeTransport{}
	ft.queueRecv(append([]byte("XXXX"), make([]byte, 9)...))

	err := awWrite(ft, []byte("x"), nil)
	assert.Error(t, err)
}
