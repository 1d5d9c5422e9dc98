// Package cpu implements the MOS 6502 core that executes NSF driver
// code. NSF playback never delivers NMIs or IRQs, so the interrupt
// lines present on a full NES are not modelled; BRK still vectors
// through $FFFE.
package cpu

// AddressingMode selects how an instruction finds its operand.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

const (
	stackBase = 0x0100

	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01

	zeroPageMask = 0xFF
	pageMask     = 0xFF00

	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// MemoryInterface is the bus the CPU reads and writes through.
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CPU is a 6502 register file bound to a bus.
type CPU struct {
	A  uint8
	X  uint8
	Y  uint8
	SP uint8
	pc uint16

	// Status flags.
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal (ignored, as on the NES)
	B bool // Break
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface
	cycles uint64
}

type opFunc func(c *CPU, address uint16, crossed bool) uint8

// instruction describes one opcode. pagePenalty marks read
// instructions that cost an extra cycle when indexing crosses a page;
// stores and read-modify-writes already carry the penalty in cycles.
type instruction struct {
	name        string
	mode        AddressingMode
	cycles      uint8
	pagePenalty bool
	fn          opFunc
}

var instructions [256]*instruction

// New creates a CPU bound to the given bus.
func New(memory MemoryInterface) *CPU {
	return &CPU{
		memory: memory,
		SP:     0xFD,
	}
}

// Reset puts the register file in its power-up state and loads PC from
// the reset vector at $FFFC.
func (c *CPU) Reset() {
	c.A = 0
	c.X = 0
	c.Y = 0
	c.SP = 0xFD

	c.C = false
	c.Z = false
	c.I = true
	c.D = false
	c.B = true
	c.V = false
	c.N = false

	low := uint16(c.memory.Read(resetVector))
	high := uint16(c.memory.Read(resetVector + 1))
	c.pc = (high << 8) | low
	c.cycles += 7
}

// PC returns the current program counter.
func (c *CPU) PC() uint16 {
	return c.pc
}

// SetPC forces the program counter. Used by tests.
func (c *CPU) SetPC(pc uint16) {
	c.pc = pc
}

// Cycles returns the total cycles executed since creation.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Step executes one instruction and returns the cycles it took.
func (c *CPU) Step() uint64 {
	opcode := c.memory.Read(c.pc)
	inst := instructions[opcode]
	if inst == nil {
		// Undefined opcode: consume it as a one-byte NOP.
		c.pc++
		c.cycles += 2
		return 2
	}

	address, crossed := c.operandAddress(inst.mode)
	extra := inst.fn(c, address, crossed)
	if crossed && inst.pagePenalty {
		extra++
	}

	total := uint64(inst.cycles + extra)
	c.cycles += total
	return total
}

// operandAddress resolves the operand address for a mode, advancing PC
// past the instruction. The second result reports a page crossing.
func (c *CPU) operandAddress(mode AddressingMode) (uint16, bool) {
	switch mode {
	case Implied, Accumulator:
		c.pc++
		return 0, false

	case Immediate:
		address := c.pc + 1
		c.pc += 2
		return address, false

	case ZeroPage:
		address := uint16(c.memory.Read(c.pc + 1))
		c.pc += 2
		return address, false

	case ZeroPageX:
		address := uint16((c.memory.Read(c.pc+1) + c.X) & zeroPageMask)
		c.pc += 2
		return address, false

	case ZeroPageY:
		address := uint16((c.memory.Read(c.pc+1) + c.Y) & zeroPageMask)
		c.pc += 2
		return address, false

	case Relative:
		offset := int8(c.memory.Read(c.pc + 1))
		next := c.pc + 2
		target := uint16(int32(next) + int32(offset))
		c.pc = next // branch op moves PC when taken
		return target, (next & pageMask) != (target & pageMask)

	case Absolute:
		address := c.readWord(c.pc + 1)
		c.pc += 3
		return address, false

	case AbsoluteX:
		base := c.readWord(c.pc + 1)
		address := base + uint16(c.X)
		c.pc += 3
		return address, (base & pageMask) != (address & pageMask)

	case AbsoluteY:
		base := c.readWord(c.pc + 1)
		address := base + uint16(c.Y)
		c.pc += 3
		return address, (base & pageMask) != (address & pageMask)

	case Indirect:
		ptr := c.readWord(c.pc + 1)
		c.pc += 3
		// 6502 quirk: the high byte wraps within the page when the
		// pointer sits at $xxFF.
		low := uint16(c.memory.Read(ptr))
		var high uint16
		if ptr&zeroPageMask == zeroPageMask {
			high = uint16(c.memory.Read(ptr & pageMask))
		} else {
			high = uint16(c.memory.Read(ptr + 1))
		}
		return (high << 8) | low, false

	case IndexedIndirect:
		ptr := (c.memory.Read(c.pc+1) + c.X) & zeroPageMask
		c.pc += 2
		low := uint16(c.memory.Read(uint16(ptr)))
		high := uint16(c.memory.Read(uint16((ptr + 1) & zeroPageMask)))
		return (high << 8) | low, false

	case IndirectIndexed:
		ptr := uint16(c.memory.Read(c.pc + 1))
		c.pc += 2
		low := uint16(c.memory.Read(ptr))
		high := uint16(c.memory.Read((ptr + 1) & zeroPageMask))
		base := (high << 8) | low
		address := base + uint16(c.Y)
		return address, (base & pageMask) != (address & pageMask)

	default:
		return 0, false
	}
}

func (c *CPU) readWord(address uint16) uint16 {
	low := uint16(c.memory.Read(address))
	high := uint16(c.memory.Read(address + 1))
	return (high << 8) | low
}

// Stack helpers.

func (c *CPU) push(value uint8) {
	c.memory.Write(stackBase+uint16(c.SP), value)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.memory.Read(stackBase + uint16(c.SP))
}

func (c *CPU) pushWord(value uint16) {
	c.push(uint8(value >> 8))
	c.push(uint8(value & 0xFF))
}

func (c *CPU) popWord() uint16 {
	low := uint16(c.pop())
	high := uint16(c.pop())
	return (high << 8) | low
}

func (c *CPU) setZN(value uint8) {
	c.Z = value == 0
	c.N = value&nFlagMask != 0
}

// StatusByte packs the flags into the status register layout; bit 5 is
// always set.
func (c *CPU) StatusByte() uint8 {
	var status uint8 = unusedMask
	if c.N {
		status |= nFlagMask
	}
	if c.V {
		status |= vFlagMask
	}
	if c.B {
		status |= bFlagMask
	}
	if c.D {
		status |= dFlagMask
	}
	if c.I {
		status |= iFlagMask
	}
	if c.Z {
		status |= zFlagMask
	}
	if c.C {
		status |= cFlagMask
	}
	return status
}

// SetStatusByte unpacks the status register layout into the flags.
func (c *CPU) SetStatusByte(status uint8) {
	c.N = status&nFlagMask != 0
	c.V = status&vFlagMask != 0
	c.B = status&bFlagMask != 0
	c.D = status&dFlagMask != 0
	c.I = status&iFlagMask != 0
	c.Z = status&zFlagMask != 0
	c.C = status&cFlagMask != 0
}
