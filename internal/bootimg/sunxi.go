package bootimg

import (
	"bytes"
	"encoding/binary"
	"log"
)

// Offsets and version bounds for the sunxi-SPL side channel: a small marker
// embedded by mksunxiboot-style tooling at offset 0x14 of the SPL header,
// and a boot-script DRAM address slot at offset 0x18 for U-Boot to read.
const (
	sunxiSignatureOffset = 0x14
	sunxiScriptOffset    = 0x18

	sunxiMinVersion = 1
	sunxiMaxVersion = 1
)

var sunxiSignature = []byte("SPL")

// HaveSunxiSPL reads the 4 bytes at splAddr+0x14 and reports whether they
// carry the "SPL" + version marker of a sunxi-variant SPL, as opposed to a
// plain Allwinner boot0 image. A version outside the supported range is
// treated as absent, and logged when verbose is set.
func HaveSunxiSPL(dev execDevice, splAddr uint32, verbose bool) (bool, error) {
	buf := make([]byte, 4)
	if err := dev.Read(splAddr+sunxiSignatureOffset, buf); err != nil {
		return false, err
	}
	if !bytes.Equal(buf[:3], sunxiSignature) {
		return false, nil
	}
	version := buf[3]
	if version < sunxiMinVersion || version > sunxiMaxVersion {
		if verbose {
			log.Printf("fel: sunxi SPL version mismatch: found 0x%02x, want [0x%02x, 0x%02x]",
				version, sunxiMinVersion, sunxiMaxVersion)
		}
		return false, nil
	}
	return true, nil
}

// PassFELInformation writes scriptAddr into the sunxi-SPL side channel at
// splAddr+0x18, if the loaded SPL supports it.
func PassFELInformation(dev execDevice, splAddr, scriptAddr uint32, verbose bool) error {
	ok, err := HaveSunxiSPL(dev, splAddr, verbose)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, scriptAddr)
	return dev.Write(splAddr+sunxiScriptOffset, buf)
}
