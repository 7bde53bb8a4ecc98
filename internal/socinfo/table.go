// Package socinfo holds the static per-SoC SRAM layout table used to stage
// an SPL: where scratch code may run, where the return thunk lives, and
// which SRAM regions the BROM keeps live and must be saved/restored.
package socinfo

// SwapBuffer describes a pair of SRAM regions exchanged around SPL
// execution: Buf1 is a BROM-live region whose bytes must be preserved,
// Buf2 is the backup location where those bytes are stashed while the SPL
// runs. A sequence is terminated by a {0,0,0} sentinel.
type SwapBuffer struct {
	Buf1, Buf2, Size uint32
}

// Info is one SoC's SRAM descriptor.
type Info struct {
	Name        string
	SocID       uint16
	SPLAddr     uint32 // SRAM address SPL is ultimately placed at; meaningful only if SupportsSPL
	ScratchAddr uint32 // safe place to upload & execute short code stubs
	ThunkAddr   uint32
	ThunkSize   uint32
	NeedsL2En   bool
	SwapBuffers []SwapBuffer
	SupportsSPL bool
}

// a10a13a20SwapBuffers applies to the A10, A13, and A20: the BROM's FEL code
// sets up an IRQ stack at 0x2000 and a regular stack at 0x7000, both growing
// down; SRAM section A3 at 0x8000 is used as the backup location.
var a10a13a20SwapBuffers = []SwapBuffer{
	{Buf1: 0x01800, Buf2: 0x8000, Size: 0x800},
	{Buf1: 0x05C00, Buf2: 0x8800, Size: 0x8000 - 0x5C00},
	{},
}

// a31SwapBuffers applies to the A23/A31/A33/A83T/H3 family, which has no
// SRAM at 0x8000; the backup area is relocated to 0x44000.
var a31SwapBuffers = []SwapBuffer{
	{Buf1: 0x01800, Buf2: 0x44000, Size: 0x800},
	{Buf1: 0x05C00, Buf2: 0x44800, Size: 0x8000 - 0x5C00},
	{},
}

// table lists every SoC this driver recognizes by name. SPLAddr is left at
// its zero value for every entry: the BROM always stages SPL at address 0
// on these SoCs.
var table = []Info{
	{
		Name: "A10", SocID: 0x1623,
		ScratchAddr: 0x2000, ThunkAddr: 0xAE00, ThunkSize: 0x200,
		NeedsL2En: true, SwapBuffers: a10a13a20SwapBuffers, SupportsSPL: true,
	},
	{
		Name: "A13", SocID: 0x1625,
		ScratchAddr: 0x2000, ThunkAddr: 0xAE00, ThunkSize: 0x200,
		NeedsL2En: true, SwapBuffers: a10a13a20SwapBuffers, SupportsSPL: true,
	},
	{
		Name: "A20", SocID: 0x1651,
		ScratchAddr: 0x2000, ThunkAddr: 0xAE00, ThunkSize: 0x200,
		SwapBuffers: a10a13a20SwapBuffers, SupportsSPL: true,
	},
	{
		Name: "A23", SocID: 0x1650,
		ScratchAddr: 0x2000, ThunkAddr: 0x46E00, ThunkSize: 0x200,
		SwapBuffers: a31SwapBuffers, SupportsSPL: true,
	},
	{
		Name: "A31", SocID: 0x1633,
		ScratchAddr: 0x2000, ThunkAddr: 0x46E00, ThunkSize: 0x200,
		SwapBuffers: a31SwapBuffers, SupportsSPL: true,
	},
	{
		Name: "A33", SocID: 0x1667,
		ScratchAddr: 0x2000, ThunkAddr: 0x46E00, ThunkSize: 0x200,
		SwapBuffers: a31SwapBuffers, SupportsSPL: true,
	},
	{
		Name: "A83T", SocID: 0x1673,
		ScratchAddr: 0x2000, ThunkAddr: 0x46E00, ThunkSize: 0x200,
		SwapBuffers: a31SwapBuffers, SupportsSPL: true,
	},
	{
		Name: "H3", SocID: 0x1680,
		ScratchAddr: 0x2000, ThunkAddr: 0x46E00, ThunkSize: 0x200,
		SwapBuffers: a31SwapBuffers, SupportsSPL: true,
	},
}

// genericSwapBuffers backs the fallback descriptor returned for an
// unrecognized SoC id: a single conservative region, assuming the BROM's
// IRQ handler never uses more than 0x400 bytes of stack.
var genericSwapBuffers = []SwapBuffer{
	{Buf1: 0x01C00, Buf2: 0x5800, Size: 0x400},
	{},
}

// Generic is returned by Lookup for an unrecognized SoC id. It cannot stage
// an SPL: SupportsSPL is false and callers that require SPL staging must
// refuse it.
var Generic = Info{
	Name:        "generic",
	ScratchAddr: 0x2000, ThunkAddr: 0x5680, ThunkSize: 0x180,
	SwapBuffers: genericSwapBuffers,
	SupportsSPL: false,
}

// Lookup performs a linear scan of the static table for socID, falling back
// to Generic (with ok=false) when no entry matches.
func Lookup(socID uint16) (info Info, ok bool) {
	for _, e := range table {
		if e.SocID == socID {
			return e, true
		}
	}
	return Generic, false
}
