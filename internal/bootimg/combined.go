package bootimg

import "github.com/allwinner-tools/go-fel/internal/socinfo"

// ProcessSPLAndUboot runs LoadAndExecuteSPL on blob, then, if blob is longer
// than SPLLenLimit, treats the tail as a candidate U-Boot image and runs
// WriteUbootImage on it. It implements the shared body of the "spl" and
// "uboot" CLI commands; the caller decides whether to autostart afterwards.
func ProcessSPLAndUboot(dev ubootWriter, soc socinfo.Info, blob []byte, verbose bool) error {
	if err := LoadAndExecuteSPL(dev, soc, blob, verbose); err != nil {
		return err
	}
	if len(blob) > SPLLenLimit {
		return WriteUbootImage(dev, blob[SPLLenLimit:], verbose)
	}
	return nil
}
