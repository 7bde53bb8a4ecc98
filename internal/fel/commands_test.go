package fel

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// versionReplyBytes builds a canned 32-byte VERSION reply with the given
// raw SoC id field.
func versionReplyBytes(rawSocID uint32) []byte {
	buf := make([]byte, 32)
	copy(buf[0:8], "AWUSBFEX")
	binary.LittleEndian.PutUint32(buf[8:12], rawSocID)
	return buf
}

// TestVersionDecodesEffectiveSocID covers the concrete scenario from the
// testable-properties list: raw id 0x00165100 must decode to soc_id
// 0x1651 (A20).
func TestVersionDecodesEffectiveSocID(t *testing.T) {
	ft := &fakeTransport{}
	ft.queueRecv(okAWUS())           // FEL request envelope ack
	ft.queueRecv(versionReplyBytes(0x00165100))
	ft.queueRecv(okAWUS())           // reply-read ack
	ft.queueRecv(make([]byte, 8))    // status payload
	ft.queueRecv(okAWUS())           // status ack

	d := &Device{transport: ft}
	v, err := d.Version()
	require.NoError(t, err)
	assert.EqualValues(t, 0x1651, v.SocID)
}

func TestWriteInterlockRefusesOverlap(t *testing.T) {
	d := &Device{transport: &fakeTransport{}, UBootEntry: 0x4A000000, UBootSize: 0x80000}

	err := d.Write(0x4A080000, []byte{0})
	assert.Error(t, err)

	// The first address past the inclusive bound UBootEntry+UBootSize is
	// allowed.
	ft := &fakeTransport{}
	ft.queueRecv(okAWUS())
	ft.queueRecv(okAWUS())
	ft.queueRecv(make([]byte, 8))
	ft.queueRecv(okAWUS())
	d2 := &Device{transport: ft, UBootEntry: 0x4A000000, UBootSize: 0x80000}
	err = d2.Write(0x4A080001, []byte{0})
	assert.NoError(t, err)
}
