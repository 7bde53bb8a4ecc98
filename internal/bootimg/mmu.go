package bootimg

import (
	"encoding/binary"
	"fmt"

	"github.com/allwinner-tools/go-fel/internal/armstub"
	"github.com/allwinner-tools/go-fel/internal/felerr"
	"github.com/allwinner-tools/go-fel/internal/socinfo"
)

// dramBase and dramSize bound the DRAM window remapped to a write-combine
// section type after MMU restore.
const (
	dramBase = 0x40000000
	dramSize = 0x80000000

	// bromSectionIndex is the section index (0xFFF, i.e. VA 0xFFF00000)
	// reserved for the BROM's own identity mapping.
	bromSectionIndex = 0xFFF

	ttSections = 4096
	ttBytes    = ttSections * 4
)

// execDevice is the subset of *fel.Device the MMU and SPL staging logic
// needs, named so bootimg tests can substitute a fake.
type execDevice interface {
	Write(addr uint32, data []byte) error
	Read(addr uint32, buf []byte) error
	Execute(addr uint32) error
}

func runStub(dev execDevice, scratchAddr uint32, code []byte) error {
	if err := dev.Write(scratchAddr, code); err != nil {
		return err
	}
	return dev.Execute(scratchAddr)
}

func readTTBR0(dev execDevice, soc socinfo.Info) (uint32, error) {
	if err := runStub(dev, soc.ScratchAddr, armstub.ReadTTBR0); err != nil {
		return 0, err
	}
	buf := make([]byte, 4)
	if err := dev.Read(soc.ScratchAddr+armstub.RegisterResultOffset, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func readSCTLR(dev execDevice, soc socinfo.Info) (uint32, error) {
	if err := runStub(dev, soc.ScratchAddr, armstub.ReadSCTLR); err != nil {
		return 0, err
	}
	buf := make([]byte, 4)
	if err := dev.Read(soc.ScratchAddr+armstub.RegisterResultOffset, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// sampleStacks runs the stack-probe stub and returns {sp_irq, sp}.
func sampleStacks(dev execDevice, soc socinfo.Info) (spIRQ, sp uint32, err error) {
	if err := runStub(dev, soc.ScratchAddr, armstub.SampleStacks); err != nil {
		return 0, 0, err
	}
	buf := make([]byte, 8)
	if err := dev.Read(soc.ScratchAddr+armstub.StackSampleResultOffset, buf); err != nil {
		return 0, 0, err
	}
	return binary.LittleEndian.Uint32(buf[0:4]), binary.LittleEndian.Uint32(buf[4:8]), nil
}

// TranslationTable is a captured 4096-entry, 1:1-section ARM page table.
type TranslationTable struct {
	TTBR0   uint32
	Entries [ttSections]uint32
}

// BackupAndDisableMMU inspects SCTLR/TTBR0 and, if the BROM has the MMU
// enabled with a sane flat identity mapping, reads back the translation
// table and disables the MMU. It returns (nil, nil) when the MMU was never
// enabled — there is nothing to restore later.
func BackupAndDisableMMU(dev execDevice, soc socinfo.Info) (*TranslationTable, error) {
	sctlr, err := readSCTLR(dev, soc)
	if err != nil {
		return nil, err
	}
	if sctlr&1 == 0 {
		return nil, nil // MMU not enabled by BROM
	}
	if (sctlr>>28)&1 != 0 {
		return nil, &felerr.ConfigurationError{Op: "backup MMU", Err: fmt.Errorf("TEX remap is enabled")}
	}

	ttbr0, err := readTTBR0(dev, soc)
	if err != nil {
		return nil, err
	}
	if ttbr0&0x3FFF != 0 {
		return nil, &felerr.ConfigurationError{Op: "backup MMU",
			Err: fmt.Errorf("unexpected TTBR0 (0x%08x): not 16KiB-aligned", ttbr0)}
	}

	raw := make([]byte, ttBytes)
	if err := dev.Read(ttbr0, raw); err != nil {
		return nil, err
	}

	tt := &TranslationTable{TTBR0: ttbr0}
	for i := 0; i < ttSections; i++ {
		tt.Entries[i] = binary.LittleEndian.Uint32(raw[4*i : 4*i+4])
	}

	for i, e := range tt.Entries {
		if (e>>1)&1 != 1 || (e>>18)&1 != 0 {
			return nil, &felerr.ConfigurationError{Op: "backup MMU", Err: fmt.Errorf("entry %d is not a section descriptor", i)}
		}
		if int(e>>20) != i {
			return nil, &felerr.ConfigurationError{Op: "backup MMU", Err: fmt.Errorf("entry %d is not a direct 1:1 mapping", i)}
		}
	}

	if err := runStub(dev, soc.ScratchAddr, armstub.DisableMMU); err != nil {
		return nil, err
	}
	return tt, nil
}

// RestoreAndEnableMMU remaps the DRAM window to a write-combine-friendly
// section type, restores a cached mapping for the BROM's own section,
// writes the table back, and re-enables the MMU.
func RestoreAndEnableMMU(dev execDevice, soc socinfo.Info, tt *TranslationTable) error {
	ttbr0, err := readTTBR0(dev, soc)
	if err != nil {
		return err
	}

	for i := dramBase >> 20; i < (dramBase+dramSize)>>20; i++ {
		tt.Entries[i] &^= (7 << 12) | (1 << 3) | (1 << 2) // clear TEXCB
		tt.Entries[i] |= 1 << 12                          // TEXCB = 00100: normal, non-cacheable
	}

	tt.Entries[bromSectionIndex] &^= (7 << 12) | (1 << 3) | (1 << 2)
	tt.Entries[bromSectionIndex] |= (1 << 12) | (1 << 3) | (1 << 2) // TEXCB = 00111: normal write-back cacheable

	raw := make([]byte, ttBytes)
	for i, e := range tt.Entries {
		binary.LittleEndian.PutUint32(raw[4*i:4*i+4], e)
	}
	if err := dev.Write(ttbr0, raw); err != nil {
		return err
	}

	return runStub(dev, soc.ScratchAddr, armstub.InvalidateAndEnableMMU)
}
