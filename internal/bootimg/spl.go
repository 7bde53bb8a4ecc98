package bootimg

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/allwinner-tools/go-fel/internal/armstub"
	"github.com/allwinner-tools/go-fel/internal/felerr"
	"github.com/allwinner-tools/go-fel/internal/socinfo"
)

// SPLLenLimit is the maximum SPL size, and also the start offset of the
// main U-Boot image within a combined u-boot-sunxi-with-spl.bin.
const SPLLenLimit = 0x8000

// splSettleDelay is a workaround for a race between the thunk's execution
// completing and the device being ready for the next USB transfer. It is
// not understood well enough to remove; sunxi-tools carries the same delay
// with the same caveat.
const splSettleDelay = 250 * time.Millisecond

// LoadAndExecuteSPL validates, stages, and runs an SPL blob against soc,
// following the procedure in §4.7: eGON header and checksum verification,
// optional L2-cache enable, MMU backup/disable, a staged write around the
// SoC's swap buffers, thunk construction and execution, a settle delay, and
// a post-execution signature check — followed by MMU restore if it had been
// backed up.
func LoadAndExecuteSPL(dev execDevice, soc socinfo.Info, blob []byte, verbose bool) error {
	if !soc.SupportsSPL {
		return &felerr.ConfigurationError{Op: "load SPL", Err: fmt.Errorf("unsupported SoC type (no SRAM swap-buffer table)")}
	}

	storedChecksum, storedLen, err := ParseEgonHeader(blob)
	if err != nil {
		return err
	}
	if storedLen > uint32(len(blob)) || storedLen%4 != 0 {
		return &felerr.ProtocolError{Op: "load SPL", Err: fmt.Errorf("bad length in eGON header: %d", storedLen)}
	}
	payload := blob[:storedLen]
	if err := VerifyEgonChecksum(payload, storedChecksum); err != nil {
		return err
	}

	if soc.NeedsL2En {
		if verbose {
			log.Printf("fel: enabling L2 cache")
		}
		if err := runStub(dev, soc.ScratchAddr, armstub.EnableL2Cache); err != nil {
			return err
		}
	}

	spIRQ, sp, err := sampleStacks(dev, soc)
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("fel: stack pointers: sp_irq=0x%08x sp=0x%08x", spIRQ, sp)
	}

	tt, err := BackupAndDisableMMU(dev, soc)
	if err != nil {
		return err
	}

	if err := stageSPLAroundSwapBuffers(dev, soc, payload); err != nil {
		return err
	}

	if err := buildAndExecuteThunk(dev, soc); err != nil {
		return err
	}

	time.Sleep(splSettleDelay)

	sig := make([]byte, 8)
	if err := dev.Read(soc.SPLAddr+4, sig); err != nil {
		return err
	}
	if !bytes.Equal(sig, eGONSuccessSignature) {
		return &felerr.ProtocolError{Op: "load SPL", Err: fmt.Errorf("SPL failure code %q", sig)}
	}

	if tt != nil {
		if err := RestoreAndEnableMMU(dev, soc, tt); err != nil {
			return err
		}
	}
	return nil
}

// stageSPLAroundSwapBuffers walks soc's sorted swap-buffer sequence,
// writing the SPL payload around each BROM-live region: bytes that land
// before a buf1 boundary are written straight through; the slice of the
// payload that would land exactly on buf1 is redirected to the backup
// location buf2 instead. Any remaining tail is written linearly once the
// swap-buffer sequence is exhausted.
func stageSPLAroundSwapBuffers(dev execDevice, soc socinfo.Info, payload []byte) error {
	curAddr := soc.SPLAddr
	splLenLimit := uint32(SPLLenLimit)
	remaining := payload

	for _, sb := range soc.SwapBuffers {
		if sb.Size == 0 {
			break
		}
		if sb.Buf2 >= soc.SPLAddr && sb.Buf2 < soc.SPLAddr+splLenLimit {
			splLenLimit = sb.Buf2 - soc.SPLAddr
		}
		if len(remaining) > 0 && curAddr < sb.Buf1 {
			n := sb.Buf1 - curAddr
			if n > uint32(len(remaining)) {
				n = uint32(len(remaining))
			}
			if err := dev.Write(curAddr, remaining[:n]); err != nil {
				return err
			}
			curAddr += n
			remaining = remaining[n:]
		}
		if len(remaining) > 0 && curAddr == sb.Buf1 {
			n := sb.Size
			if n > uint32(len(remaining)) {
				n = uint32(len(remaining))
			}
			if err := dev.Write(sb.Buf2, remaining[:n]); err != nil {
				return err
			}
			curAddr += n
			remaining = remaining[n:]
		}
	}

	if soc.ThunkAddr-soc.SPLAddr < splLenLimit {
		splLenLimit = soc.ThunkAddr - soc.SPLAddr
	}
	if uint32(len(payload)) > splLenLimit {
		return &felerr.ConfigurationError{Op: "load SPL",
			Err: fmt.Errorf("SPL too large (need %d, have %d)", len(payload), splLenLimit)}
	}

	if len(remaining) > 0 {
		if err := dev.Write(curAddr, remaining); err != nil {
			return err
		}
	}
	return nil
}

// buildAndExecuteThunk assembles the thunk buffer (opaque thunk code, SPL
// load address, and swap-buffer sequence), writes it to soc.ThunkAddr, and
// executes it.
func buildAndExecuteThunk(dev execDevice, soc socinfo.Info) error {
	words := make([]uint32, 0, 3*len(soc.SwapBuffers))
	for _, sb := range soc.SwapBuffers {
		words = append(words, sb.Buf1, sb.Buf2, sb.Size)
		if sb.Size == 0 {
			break
		}
	}

	thunkBuf := armstub.BuildThunkBuffer(soc.SPLAddr, words)
	if uint32(len(thunkBuf)) > soc.ThunkSize {
		return &felerr.ConfigurationError{Op: "load SPL",
			Err: fmt.Errorf("thunk too large (need %d, have %d)", len(thunkBuf), soc.ThunkSize)}
	}

	if err := dev.Write(soc.ThunkAddr, thunkBuf); err != nil {
		return err
	}
	return dev.Execute(soc.ThunkAddr)
}
