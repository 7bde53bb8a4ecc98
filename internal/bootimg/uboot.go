package bootimg

import (
	"fmt"
	"log"

	"github.com/allwinner-tools/go-fel/internal/felerr"
)

// ubootWriter is the subset of *fel.Device WriteUbootImage needs: a write
// plus the two U-Boot footprint fields that arm the overlap interlock.
type ubootWriter interface {
	execDevice
	SetUBootFootprint(entry, size uint32)
}

// WriteUbootImage inspects buf's mkimage header and, if it declares a
// TypeFirmware image for ARM whose declared data size matches the trailing
// payload, writes that payload to the declared load address and arms the
// session's U-Boot overlap interlock.
//
// A buffer too short to contain even the header is silently ignored, per
// the original tool's behavior of treating it as "no image present" rather
// than an error.
func WriteUbootImage(dev ubootWriter, buf []byte, verbose bool) error {
	if len(buf) <= HeaderSize {
		return nil
	}

	imageType := GetImageType(buf)
	if imageType <= TypeInvalid {
		switch imageType {
		case TypeInvalid:
			return &felerr.ProtocolError{Op: "write U-Boot image", Err: fmt.Errorf("invalid image: bad size or signature")}
		case typeArchMismatch:
			return &felerr.ProtocolError{Op: "write U-Boot image", Err: fmt.Errorf("wrong architecture")}
		default:
			return &felerr.ProtocolError{Op: "write U-Boot image", Err: fmt.Errorf("error code %d", imageType)}
		}
	}
	if imageType != TypeFirmware {
		return &felerr.ProtocolError{Op: "write U-Boot image",
			Err: fmt.Errorf("image type mismatch: expected firmware (5), got %d", imageType)}
	}

	dataSize, loadAddr := ParseLegacyHeader(buf)
	if dataSize != uint32(len(buf)-HeaderSize) {
		return &felerr.ProtocolError{Op: "write U-Boot image",
			Err: fmt.Errorf("data size mismatch: expected %d, got %d", len(buf)-HeaderSize, dataSize)}
	}

	if verbose {
		log.Printf("fel: writing image %q, %d bytes @ 0x%08x", ImageName(buf), dataSize, loadAddr)
	}

	if err := dev.Write(loadAddr, buf[HeaderSize:]); err != nil {
		return err
	}
	dev.SetUBootFootprint(loadAddr, dataSize)
	return nil
}
