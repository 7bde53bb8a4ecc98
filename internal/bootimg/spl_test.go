package bootimg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allwinner-tools/go-fel/internal/socinfo"
)

// TestStagingWalkMatchesSpecScenario reproduces the concrete SPL-staging
// scenario: swap buffers [{0x1800,0x8000,0x800},{0x5C00,0x8800,0x2400}],
// spl_addr=0, expecting writes:
// 0x0000..0x1800 @ 0x0000, 0x1800..0x2000 @ 0x8000,
// 0x2000..0x5C00 @ 0x2000, 0x5C00..0x8000 @ 0x8800.
// Neither swap buffer's Buf2 nor ThunkAddr falls inside [0, SPLLenLimit)
// here, so splLenLimit stays at its initial SPLLenLimit (0x8000) for the
// whole walk; a payload of exactly that length fills both swap buffers to
// capacity and leaves nothing for a trailing linear write.
func TestStagingWalkMatchesSpecScenario(t *testing.T) {
	soc := socinfo.Info{
		SPLAddr:   0,
		ThunkAddr: 0x10000, // clear of SPLLenLimit, so it never tightens the guard
		SwapBuffers: []socinfo.SwapBuffer{
			{Buf1: 0x1800, Buf2: 0x8000, Size: 0x800},
			{Buf1: 0x5C00, Buf2: 0x8800, Size: 0x2400},
			{},
		},
	}
	const payloadLen = SPLLenLimit
	payload := make([]byte, payloadLen)
	for i := range payload {
		payload[i] = byte(i)
	}

	dev := &fakeDevice{}
	require.NoError(t, stageSPLAroundSwapBuffers(dev, soc, payload))

	require.Len(t, dev.writes, 4)
	assertWrite := func(i int, addr uint32, lo, hi int) {
		t.Helper()
		assert.EqualValues(t, addr, dev.writes[i].addr)
		assert.Equal(t, payload[lo:hi], dev.writes[i].data)
	}
	assertWrite(0, 0x0000, 0x0000, 0x1800)
	assertWrite(1, 0x8000, 0x1800, 0x2000)
	assertWrite(2, 0x2000, 0x2000, 0x5C00)
	assertWrite(3, 0x8800, 0x5C00, 0x8000)
}

// TestStagingWalkRejectsOversizePayload covers the size guard itself: one
// byte more than SPLLenLimit is refused with a ConfigurationError once the
// swap-buffer walk is done, before any trailing linear write.
func TestStagingWalkRejectsOversizePayload(t *testing.T) {
	soc := socinfo.Info{
		SPLAddr:   0,
		ThunkAddr: 0x10000,
		SwapBuffers: []socinfo.SwapBuffer{
			{Buf1: 0x1800, Buf2: 0x8000, Size: 0x800},
			{Buf1: 0x5C00, Buf2: 0x8800, Size: 0x2400},
			{},
		},
	}
	payload := make([]byte, SPLLenLimit+1)

	dev := &fakeDevice{}
	err := stageSPLAroundSwapBuffers(dev, soc, payload)
	assert.Error(t, err)
}

func TestLoadAndExecuteSPLRefusesUnsupportedSoC(t *testing.T) {
	dev := &fakeDevice{}
	err := LoadAndExecuteSPL(dev, socinfo.Generic, make([]byte, 32), false)
	assert.Error(t, err)
}

func TestLoadAndExecuteSPLDetectsFailureSignature(t *testing.T) {
	words := [8]uint32{0, 0, 0, 0, 0, 0, 0, 0}
	payload := buildEgonPayload(words)

	soc := socinfo.Info{
		SupportsSPL: true, SPLAddr: 0, ScratchAddr: 0x2000,
		ThunkAddr: 0x5680, ThunkSize: 0x180,
		SwapBuffers: []socinfo.SwapBuffer{{Buf1: 0x1C00, Buf2: 0x5800, Size: 0x400}, {}},
	}
	dev := &fakeDevice{readReplies: map[uint32][]byte{
		soc.SPLAddr + 4: []byte("BADSIGFF"),
	}}

	err := LoadAndExecuteSPL(dev, soc, payload, false)
	assert.Error(t, err)
}
