// Package usbtransport opens the Allwinner FEL USB device and exposes raw
// bulk send/recv primitives. It knows nothing about the AW-USB envelope or
// the FEL command set layered on top of it.
package usbtransport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/gousb"

	"github.com/allwinner-tools/go-fel/internal/felerr"
)

// VendorID and ProductID identify a device sitting in Allwinner FEL mode.
const (
	VendorID  = 0x1f3a
	ProductID = 0xefe8
)

// MaxBulkTransfer caps a single bulk request; larger payloads are chunked.
const MaxBulkTransfer = 4 * 1024 * 1024

// DefaultTimeout applies to every individual bulk transfer.
const DefaultTimeout = 60 * time.Second

// ProgressFunc is invoked after each chunk of a Send or Recv with the total
// payload length, the number of bytes completed so far, and the length of
// the chunk just transferred.
type ProgressFunc func(total, completed, chunkLen int)

// Transport is the minimal bulk I/O surface the FEL layer depends on,
// satisfied by *Device and by fakes in tests.
type Transport interface {
	Send(data []byte, progress ProgressFunc) error
	Recv(buf []byte, progress ProgressFunc) error
	Close() error
}

// Device is a USB bulk transport bound to a single FEL device's interface 0.
type Device struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	cfg     *gousb.Config
	intf    *gousb.Interface
	epOut   *gousb.OutEndpoint
	epIn    *gousb.InEndpoint
	timeout time.Duration
}

// Open opens the first device matching VendorID/ProductID, claims interface
// 0, and resolves the first bulk IN and first bulk OUT endpoints of its
// active alternate setting. A non-empty busAddr ("bus:address") is checked
// against that first device only: if it does not match, Open fails; other
// matching devices are not searched.
func Open(busAddr string) (*Device, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		ctx.Close()
		if errors.Is(err, os.ErrPermission) {
			return nil, &felerr.TransportError{Op: "open device",
				Err: fmt.Errorf("permission denied accessing USB device (vid=0x%04x pid=0x%04x): %w", VendorID, ProductID, err)}
		}
		return nil, &felerr.TransportError{Op: "open device", Err: err}
	}
	if dev == nil {
		ctx.Close()
		return nil, &felerr.TransportError{Op: "open device",
			Err: fmt.Errorf("no device found (vid=0x%04x pid=0x%04x): is it in FEL mode?", VendorID, ProductID)}
	}

	if busAddr != "" && fmt.Sprintf("%d:%d", dev.Desc.Bus, dev.Desc.Address) != busAddr {
		dev.Close()
		ctx.Close()
		return nil, &felerr.TransportError{Op: "open device",
			Err: fmt.Errorf("device at bus:addr %d:%d does not match requested %q", dev.Desc.Bus, dev.Desc.Address, busAddr)}
	}

	dev.SetAutoDetach(true)

	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		cfgNum = 1
	}
	cfg, err := dev.Config(cfgNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, &felerr.TransportError{Op: "select config", Err: err}
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, &felerr.TransportError{Op: "claim interface 0", Err: err}
	}

	epOutAddr, epInAddr, err := firstBulkEndpoints(intf)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, &felerr.TransportError{Op: "locate bulk endpoints", Err: err}
	}

	epOut, err := intf.OutEndpoint(epOutAddr)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, &felerr.TransportError{Op: "open OUT endpoint", Err: err}
	}

	epIn, err := intf.InEndpoint(epInAddr)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, &felerr.TransportError{Op: "open IN endpoint", Err: err}
	}

	return &Device{
		ctx:     ctx,
		dev:     dev,
		cfg:     cfg,
		intf:    intf,
		epOut:   epOut,
		epIn:    epIn,
		timeout: DefaultTimeout,
	}, nil
}

// firstBulkEndpoints scans an interface setting's endpoints, in ascending
// address order, for the first bulk OUT and first bulk IN endpoint numbers.
// Interface.OutEndpoint/InEndpoint take an endpoint number (int), not the
// raw EndpointAddress byte, so the numbers are what gets returned here.
func firstBulkEndpoints(intf *gousb.Interface) (out, in int, err error) {
	addrs := make([]gousb.EndpointAddress, 0, len(intf.Setting.Endpoints))
	for addr := range intf.Setting.Endpoints {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	var haveOut, haveIn bool
	for _, addr := range addrs {
		ep := intf.Setting.Endpoints[addr]
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionOut && !haveOut {
			out, haveOut = ep.Number, true
		}
		if ep.Direction == gousb.EndpointDirectionIn && !haveIn {
			in, haveIn = ep.Number, true
		}
	}
	if !haveOut || !haveIn {
		return 0, 0, fmt.Errorf("interface 0 has no bulk IN/OUT endpoint pair")
	}
	return out, in, nil
}

// SetTimeout overrides the per-transfer timeout (default DefaultTimeout).
func (d *Device) SetTimeout(t time.Duration) { d.timeout = t }

// Close releases the interface, configuration, device handle, and context.
func (d *Device) Close() error {
	if d.intf != nil {
		d.intf.Close()
	}
	if d.cfg != nil {
		d.cfg.Close()
	}
	if d.dev != nil {
		d.dev.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
	return nil
}

// Send writes data to the OUT endpoint in chunks of at most MaxBulkTransfer
// bytes. There is no retry: any transfer error is fatal to the transport.
func (d *Device) Send(data []byte, progress ProgressFunc) error {
	total := len(data)
	sent := 0
	for sent < total || total == 0 {
		chunk := data[sent:]
		if len(chunk) > MaxBulkTransfer {
			chunk = chunk[:MaxBulkTransfer]
		}
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		n, err := d.epOut.WriteContext(ctx, chunk)
		cancel()
		if err != nil {
			return &felerr.TransportError{Op: "bulk write", Err: err}
		}
		sent += n
		if progress != nil {
			progress(total, sent, n)
		}
		if total == 0 {
			break
		}
	}
	return nil
}

// Recv reads len(buf) bytes from the IN endpoint in chunks of at most
// MaxBulkTransfer bytes.
func (d *Device) Recv(buf []byte, progress ProgressFunc) error {
	total := len(buf)
	got := 0
	for got < total {
		chunk := buf[got:]
		if len(chunk) > MaxBulkTransfer {
			chunk = chunk[:MaxBulkTransfer]
		}
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		n, err := d.epIn.ReadContext(ctx, chunk)
		cancel()
		if err != nil {
			return &felerr.TransportError{Op: "bulk read", Err: err}
		}
		got += n
		if progress != nil {
			progress(total, got, n)
		}
		if n == 0 {
			break
		}
	}
	if got < total {
		return &felerr.TransportError{Op: "bulk read", Err: fmt.Errorf("short read: got %d of %d bytes", got, total)}
	}
	return nil
}
