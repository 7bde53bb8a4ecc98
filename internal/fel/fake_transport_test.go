package fel

import (
	"fmt"

	"github.com/allwinner-tools/go-fel/internal/usbtransport"
)

// fakeTransport records every Send call and serves Recv calls from a queue
// of canned replies, letting tests assert the exact AW-USB/FEL wire trace
// without a real USB device.
type fakeTransport struct {
	sent   [][]byte
	recvs  [][]byte
	recvAt int
}

var _ usbtransport.Transport = (*fakeTransport)(nil)

func (f *fakeTransport) Send(data []byte, progress usbtransport.ProgressFunc) error {
	cp := append([]byte(nil), data...)
	f.sent = append(f.sent, cp)
	if progress != nil {
		progress(len(data), len(data), len(data))
	}
	return nil
}

func (f *fakeTransport) Recv(buf []byte, progress usbtransport.ProgressFunc) error {
	if f.recvAt >= len(f.recvs) {
		return fmt.Errorf("fakeTransport: no more canned replies (wanted %d bytes)", len(buf))
	}
	next := f.recvs[f.recvAt]
	f.recvAt++
	if len(next) != len(buf) {
		return fmt.Errorf("fakeTransport: reply length mismatch: got %d queued, want %d", len(next), len(buf))
	}
	copy(buf, next)
	if progress != nil {
		progress(len(buf), len(buf), len(buf))
	}
	return nil
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) queueRecv(b []byte) {
	f.recvs = append(f.recvs, b)
}

func okAWUS() []byte {
	return append([]byte("AWUS"), make([]byte, 9)...)
}
