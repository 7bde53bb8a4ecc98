package fel

import (
	"log"

	"github.com/allwinner-tools/go-fel/internal/socinfo"
	"github.com/allwinner-tools/go-fel/internal/usbtransport"
)

// Version is the post-processed reply to the FEL VERSION request.
type Version struct {
	Signature  [8]byte
	SocIDRaw   uint32 // raw field as received; effective id is (raw>>8)&0xFFFF
	SocID      uint16
	Unknown    uint32
	Protocol   uint16
	Unknown12  byte
	Unknown13  byte
	Scratchpad uint32
}

// Device is a FEL session: an opened USB transport, its resolved SoC
// descriptor (looked up once, eagerly, at Open), and the U-Boot footprint
// fields used by the write interlock. It replaces the
// original driver's global/static state with fields a caller threads
// explicitly.
type Device struct {
	transport usbtransport.Transport
	SoC       socinfo.Info

	// UBootEntry/UBootSize are write-once: set by WriteUbootImage in
	// package bootimg on a successful U-Boot load, and consulted by
	// Write's overlap interlock. Zero means "no U-Boot image loaded yet".
	UBootEntry uint32
	UBootSize  uint32

	Verbose  bool
	Progress usbtransport.ProgressFunc
}

// Open wraps an already-open transport into a Device, issuing a VERSION
// request to eagerly resolve and cache the SoC descriptor. verbose controls
// whether a SoC-table miss is logged immediately; Device.Verbose can still
// be changed afterward for later operations.
func Open(t usbtransport.Transport, verbose bool) (*Device, error) {
	d := &Device{transport: t, Verbose: verbose}
	ver, err := d.Version()
	if err != nil {
		t.Close()
		return nil, err
	}
	soc, ok := socinfo.Lookup(ver.SocID)
	if !ok && d.Verbose {
		log.Printf("fel: no SRAM descriptor for SoC id=%04X, using generic fallback", ver.SocID)
	}
	d.SoC = soc
	return d, nil
}

// Close releases the underlying transport.
func (d *Device) Close() error {
	return d.transport.Close()
}
