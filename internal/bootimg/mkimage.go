package bootimg

import "encoding/binary"

// mkimage "legacy" header layout (big-endian integers).
const (
	ihMagic   = 0x27051956
	ihArchARM = 2

	headerNameOffset = 32
	ihNameLen        = 32

	// HeaderSize is the total size of the legacy header, name field included.
	HeaderSize = headerNameOffset + ihNameLen

	dataSizeOffset = 12
	loadAddrOffset = 16
)

// Image type byte values.
const (
	TypeInvalid      = 0
	TypeFirmware     = 5
	TypeScript       = 6
	typeArchMismatch = -1 // synthetic, not part of the on-wire header
)

// GetImageType inspects buf's mkimage legacy header and classifies it:
// TypeInvalid for insufficient length or a bad magic, typeArchMismatch for a
// valid magic with a non-ARM architecture byte, or the header's type byte
// otherwise.
func GetImageType(buf []byte) int {
	if len(buf) <= HeaderSize {
		return TypeInvalid
	}
	if binary.BigEndian.Uint32(buf[0:4]) != ihMagic {
		return TypeInvalid
	}
	if buf[29] != ihArchARM {
		return typeArchMismatch
	}
	return int(buf[30])
}

// ParseLegacyHeader reads the big-endian data size and load address fields
// of an already-validated (magic OK, arch OK) legacy header.
func ParseLegacyHeader(buf []byte) (dataSize, loadAddr uint32) {
	dataSize = binary.BigEndian.Uint32(buf[dataSizeOffset : dataSizeOffset+4])
	loadAddr = binary.BigEndian.Uint32(buf[loadAddrOffset : loadAddrOffset+4])
	return dataSize, loadAddr
}

// ImageName extracts the 32-byte, NUL-padded image name field.
func ImageName(buf []byte) string {
	name := buf[headerNameOffset : headerNameOffset+ihNameLen]
	end := len(name)
	for end > 0 && name[end-1] == 0 {
		end--
	}
	return string(name[:end])
}
