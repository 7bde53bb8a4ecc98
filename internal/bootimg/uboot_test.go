package bootimg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteUbootImageArmsFootprint(t *testing.T) {
	dataSize := uint32(4)
	buf := legacyHeader(ihArchARM, TypeFirmware, dataSize, 0x4A000000, true)

	dev := &fakeDevice{}
	require.NoError(t, WriteUbootImage(dev, buf, false))

	assert.EqualValues(t, 0x4A000000, dev.entry)
	assert.EqualValues(t, dataSize, dev.size)
	require.Len(t, dev.writes, 1)
	assert.EqualValues(t, 0x4A000000, dev.writes[0].addr)
}

func TestWriteUbootImageTooShortIsNoop(t *testing.T) {
	dev := &fakeDevice{}
	require.NoError(t, WriteUbootImage(dev, make([]byte, HeaderSize), false))
	assert.Empty(t, dev.writes)
}

func TestWriteUbootImageDataSizeMismatch(t *testing.T) {
	// Header declares 999 bytes of data but only 4 trailing bytes are present.
	buf := legacyHeader(ihArchARM, TypeFirmware, 999, 0x4A000000, false)
	buf = append(buf, make([]byte, 4)...)
	dev := &fakeDevice{}
	assert.Error(t, WriteUbootImage(dev, buf, false))
}
