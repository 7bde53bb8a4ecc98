package armstub

import "encoding/binary"

// Thunk is the opaque SPL-return trampoline. Its source assembly is not
// available here; it is carried as a pre-assembled placeholder with a fixed
// entry/exit contract documented below, mirroring how sunxi-tools treats
// fel-to-spl-thunk.h as a black box included straight into its thunk buffer:
//
//   - entered via FEL EXECUTE (equivalent to BL)
//   - appended immediately after Thunk in the uploaded buffer: a 32-bit
//     little-endian SPL load address, then the SoC's swap_buffers sequence
//     (including its zero sentinel), each word little-endian
//   - on entry: swaps buf1<->buf2 for every swap_buffers entry
//   - calls the SPL at the appended load address
//   - on SPL return (or re-entry signal), swaps buf1<->buf2 back
//   - returns via "bx lr" so a FEL status is posted to the host
var Thunk = le32(
	0xe92d4ff0, // push {r4-r11, lr}  -- placeholder trampoline prologue
	0xe59f0000, // ldr  r0, [pc, #0]  -- load appended spl_addr / swap table
	0xe12fff1e, // bx   lr            -- documented contract: must end bx lr
)

// BuildThunkBuffer concatenates the opaque Thunk code, the little-endian
// SPL load address, and the little-endian swap-buffer sequence (entries
// plus the terminating zero sentinel) into one buffer ready to be written
// to a SoC's thunk_addr.
func BuildThunkBuffer(splAddr uint32, swapBufWords []uint32) []byte {
	buf := make([]byte, 0, len(Thunk)+4+4*len(swapBufWords))
	buf = append(buf, Thunk...)
	addrBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(addrBytes, splAddr)
	buf = append(buf, addrBytes...)
	buf = append(buf, le32(swapBufWords...)...)
	return buf
}
