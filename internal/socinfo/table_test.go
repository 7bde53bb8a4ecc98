package socinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSwapBuffersSortedAndTerminated asserts the invariant spec'd for every
// SoC table entry: swap_buffers is sorted ascending by buf1, non-overlapping,
// and terminated by a size==0 sentinel.
func TestSwapBuffersSortedAndTerminated(t *testing.T) {
	for _, info := range table {
		t.Run(info.Name, func(t *testing.T) {
			bufs := info.SwapBuffers
			if assert.NotEmpty(t, bufs) {
				last := bufs[len(bufs)-1]
				assert.Zero(t, last.Size, "table must end with a zero-size sentinel")
			}
			var prevEnd uint32
			for i, b := range bufs {
				if b.Size == 0 {
					assert.Equal(t, len(bufs)-1, i, "sentinel must be the last entry")
					continue
				}
				assert.GreaterOrEqual(t, b.Buf1, prevEnd, "swap buffers must be sorted and non-overlapping")
				prevEnd = b.Buf1 + b.Size
			}
		})
	}
}

func TestLookupKnownSoC(t *testing.T) {
	info, ok := Lookup(0x1651)
	assert.True(t, ok)
	assert.Equal(t, "A20", info.Name)
	assert.True(t, info.SupportsSPL)
}

func TestLookupUnknownSoCFallsBackToGeneric(t *testing.T) {
	info, ok := Lookup(0xDEAD)
	assert.False(t, ok)
	assert.Equal(t, Generic.Name, info.Name)
	assert.False(t, info.SupportsSPL)
}
