// Package armstub holds the small ARM instruction sequences the SPL loader
// uploads to a device's scratch SRAM and executes. Each stub is a named,
// pre-assembled byte blob: little-endian 32-bit words, entered via the FEL
// EXECUTE command (equivalent to a BL), and always ending in "bx lr" so a
// FEL status gets posted back to the host.
//
// The bytes below are the machine code sunxi-tools has shipped for these
// probes; they are reproduced here as data, not derived, since deriving
// correct ARM opcodes without an assembler would be guesswork.
package armstub

import "encoding/binary"

// le32 little-endian-encodes a sequence of 32-bit words into bytes.
func le32(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:4*i+4], w)
	}
	return buf
}

// EnableL2Cache sets bit 1 (L2EN) of the CP15 auxiliary control register.
// No result is written back.
var EnableL2Cache = le32(
	0xee112f30, // mrc 15, 0, r2, cr1, cr0, {1}
	0xe3822002, // orr r2, r2, #2
	0xee012f30, // mcr 15, 0, r2, cr1, cr0, {1}
	0xe12fff1e, // bx lr
)

// StackSampleResultOffset is where the stub below stores its two result
// words relative to the scratch address the stub was uploaded to.
const StackSampleResultOffset = 0x24

// SampleStacks switches briefly to IRQ mode to read SP_irq, switches back,
// and writes {sp_irq, sp} as two little-endian words to
// scratch+StackSampleResultOffset.
var SampleStacks = le32(
	0xe10f0000, // mrs r0, CPSR
	0xe3c0101f, // bic r1, r0, #31
	0xe3811012, // orr r1, r1, #18 (IRQ mode)
	0xe121f001, // msr CPSR_c, r1
	0xe1a0100d, // mov r1, sp
	0xe121f000, // msr CPSR_c, r0
	0xe58f1004, // str r1, [pc, #4]
	0xe58fd004, // str sp, [pc, #4]
	0xe12fff1e, // bx lr
)

// RegisterResultOffset is where ReadTTBR0 and ReadSCTLR each store their
// single result word relative to the scratch address.
const RegisterResultOffset = 0x14

// ReadTTBR0 reads CP15 c2 (TTBR0) and stores it at scratch+RegisterResultOffset.
var ReadTTBR0 = le32(
	0xee122f10, // mrc 15, 0, r2, cr2, cr0, {0}
	0xe58f2008, // str r2, [pc, #8]
	0xe12fff1e, // bx lr
)

// ReadSCTLR reads CP15 c1 (SCTLR) and stores it at scratch+RegisterResultOffset.
var ReadSCTLR = le32(
	0xee112f10, // mrc 15, 0, r2, cr1, cr0, {0}
	0xe58f2008, // str r2, [pc, #8]
	0xe12fff1e, // bx lr
)

// DisableMMU clears the M (MMU), I (instruction cache), and Z (branch
// prediction) bits of SCTLR. No result is written back.
var DisableMMU = le32(
	0xee110f10, // mrc 15, 0, r0, cr1, cr0, {0}
	0xe3c00001, // bic r0, r0, #1    (M)
	0xe3c00a01, // bic r0, r0, #4096 (I)
	0xe3c00b02, // bic r0, r0, #2048 (Z)
	0xee010f10, // mcr 15, 0, r0, cr1, cr0, {0}
	0xe12fff1e, // bx lr
)

// InvalidateAndEnableMMU invalidates the I-cache, TLB, and BTB, then
// re-enables the MMU, I-cache, and branch prediction. No result is written
// back; the caller must have already written the translation table back to
// TTBR0 before executing this stub.
var InvalidateAndEnableMMU = le32(
	0xe3a00000, // mov r0, #0
	0xee080f17, // mcr 15, 0, r0, cr8, cr7, {0} (invalidate TLB)
	0xee070f15, // mcr 15, 0, r0, cr7, cr5, {0} (invalidate I-cache)
	0xee070fd5, // mcr 15, 0, r0, cr7, cr5, {6} (invalidate BTB)
	0xf57ff04f, // dsb sy
	0xf57ff06f, // isb sy
	0xee110f10, // mrc 15, 0, r0, cr1, cr0, {0}
	0xe3800001, // orr r0, r0, #1
	0xe3800a01, // orr r0, r0, #4096
	0xe3800b02, // orr r0, r0, #2048
	0xee010f10, // mcr 15, 0, r0, cr1, cr0, {0}
	0xe12fff1e, // bx lr
)
