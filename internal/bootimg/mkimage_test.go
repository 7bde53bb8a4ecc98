package bootimg

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func legacyHeader(arch, imgType byte, dataSize, loadAddr uint32, withTrailingData bool) []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], ihMagic)
	binary.BigEndian.PutUint32(buf[12:16], dataSize)
	binary.BigEndian.PutUint32(buf[16:20], loadAddr)
	buf[29] = arch
	buf[30] = imgType
	if withTrailingData {
		buf = append(buf, make([]byte, dataSize)...)
	}
	return buf
}

func TestGetImageTypeInvalidTooShort(t *testing.T) {
	assert.Equal(t, TypeInvalid, GetImageType(make([]byte, HeaderSize)))
}

func TestGetImageTypeInvalidBadMagic(t *testing.T) {
	buf := legacyHeader(ihArchARM, TypeFirmware, 4, 0x1000, true)
	buf[0] = 0
	assert.Equal(t, TypeInvalid, GetImageType(buf))
}

func TestGetImageTypeArchMismatch(t *testing.T) {
	buf := legacyHeader(0, TypeFirmware, 4, 0x1000, true)
	assert.Equal(t, typeArchMismatch, GetImageType(buf))
}

func TestGetImageTypeReturnsTypeByte(t *testing.T) {
	buf := legacyHeader(ihArchARM, TypeFirmware, 4, 0x1000, true)
	assert.Equal(t, TypeFirmware, GetImageType(buf))
}
