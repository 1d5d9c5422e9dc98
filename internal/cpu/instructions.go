package cpu

// Instruction implementations. Each returns the extra cycles beyond the
// opcode's base count; only branches return a non-zero value. The
// page-crossing penalty of indexed reads is added by Step.

// Loads and stores.

func lda(c *CPU, address uint16, _ bool) uint8 {
	c.A = c.memory.Read(address)
	c.setZN(c.A)
	return 0
}

func ldx(c *CPU, address uint16, _ bool) uint8 {
	c.X = c.memory.Read(address)
	c.setZN(c.X)
	return 0
}

func ldy(c *CPU, address uint16, _ bool) uint8 {
	c.Y = c.memory.Read(address)
	c.setZN(c.Y)
	return 0
}

func sta(c *CPU, address uint16, _ bool) uint8 {
	c.memory.Write(address, c.A)
	return 0
}

func stx(c *CPU, address uint16, _ bool) uint8 {
	c.memory.Write(address, c.X)
	return 0
}

func sty(c *CPU, address uint16, _ bool) uint8 {
	c.memory.Write(address, c.Y)
	return 0
}

// Arithmetic.

func adc(c *CPU, address uint16, _ bool) uint8 {
	c.addWithCarry(c.memory.Read(address))
	return 0
}

func sbc(c *CPU, address uint16, _ bool) uint8 {
	c.addWithCarry(c.memory.Read(address) ^ 0xFF)
	return 0
}

// addWithCarry implements the shared ADC/SBC datapath; SBC feeds the
// operand in ones-complemented.
func (c *CPU) addWithCarry(value uint8) {
	carry := uint16(0)
	if c.C {
		carry = 1
	}
	result := uint16(c.A) + uint16(value) + carry

	c.V = (c.A^uint8(result))&0x80 != 0 && (c.A^value)&0x80 == 0
	c.C = result > 0xFF
	c.A = uint8(result)
	c.setZN(c.A)
}

// Logic.

func and(c *CPU, address uint16, _ bool) uint8 {
	c.A &= c.memory.Read(address)
	c.setZN(c.A)
	return 0
}

func ora(c *CPU, address uint16, _ bool) uint8 {
	c.A |= c.memory.Read(address)
	c.setZN(c.A)
	return 0
}

func eor(c *CPU, address uint16, _ bool) uint8 {
	c.A ^= c.memory.Read(address)
	c.setZN(c.A)
	return 0
}

func bit(c *CPU, address uint16, _ bool) uint8 {
	value := c.memory.Read(address)
	c.N = value&nFlagMask != 0
	c.V = value&vFlagMask != 0
	c.Z = c.A&value == 0
	return 0
}

// Shifts and rotates, memory and accumulator forms.

func asl(c *CPU, address uint16, _ bool) uint8 {
	value := c.memory.Read(address)
	c.C = value&0x80 != 0
	value <<= 1
	c.memory.Write(address, value)
	c.setZN(value)
	return 0
}

func aslA(c *CPU, _ uint16, _ bool) uint8 {
	c.C = c.A&0x80 != 0
	c.A <<= 1
	c.setZN(c.A)
	return 0
}

func lsr(c *CPU, address uint16, _ bool) uint8 {
	value := c.memory.Read(address)
	c.C = value&0x01 != 0
	value >>= 1
	c.memory.Write(address, value)
	c.setZN(value)
	return 0
}

func lsrA(c *CPU, _ uint16, _ bool) uint8 {
	c.C = c.A&0x01 != 0
	c.A >>= 1
	c.setZN(c.A)
	return 0
}

func rol(c *CPU, address uint16, _ bool) uint8 {
	value := c.memory.Read(address)
	c.memory.Write(address, c.rotateLeft(value))
	return 0
}

func rolA(c *CPU, _ uint16, _ bool) uint8 {
	c.A = c.rotateLeft(c.A)
	return 0
}

func ror(c *CPU, address uint16, _ bool) uint8 {
	value := c.memory.Read(address)
	c.memory.Write(address, c.rotateRight(value))
	return 0
}

func rorA(c *CPU, _ uint16, _ bool) uint8 {
	c.A = c.rotateRight(c.A)
	return 0
}

func (c *CPU) rotateLeft(value uint8) uint8 {
	carryIn := c.C
	c.C = value&0x80 != 0
	value <<= 1
	if carryIn {
		value |= 0x01
	}
	c.setZN(value)
	return value
}

func (c *CPU) rotateRight(value uint8) uint8 {
	carryIn := c.C
	c.C = value&0x01 != 0
	value >>= 1
	if carryIn {
		value |= 0x80
	}
	c.setZN(value)
	return value
}

// Compares.

func cmp(c *CPU, address uint16, _ bool) uint8 {
	c.compare(c.A, c.memory.Read(address))
	return 0
}

func cpx(c *CPU, address uint16, _ bool) uint8 {
	c.compare(c.X, c.memory.Read(address))
	return 0
}

func cpy(c *CPU, address uint16, _ bool) uint8 {
	c.compare(c.Y, c.memory.Read(address))
	return 0
}

func (c *CPU) compare(register, value uint8) {
	c.C = register >= value
	c.setZN(register - value)
}

// Increments and decrements.

func inc(c *CPU, address uint16, _ bool) uint8 {
	value := c.memory.Read(address) + 1
	c.memory.Write(address, value)
	c.setZN(value)
	return 0
}

func dec(c *CPU, address uint16, _ bool) uint8 {
	value := c.memory.Read(address) - 1
	c.memory.Write(address, value)
	c.setZN(value)
	return 0
}

func inx(c *CPU, _ uint16, _ bool) uint8 { c.X++; c.setZN(c.X); return 0 }
func iny(c *CPU, _ uint16, _ bool) uint8 { c.Y++; c.setZN(c.Y); return 0 }
func dex(c *CPU, _ uint16, _ bool) uint8 { c.X--; c.setZN(c.X); return 0 }
func dey(c *CPU, _ uint16, _ bool) uint8 { c.Y--; c.setZN(c.Y); return 0 }

// Transfers.

func tax(c *CPU, _ uint16, _ bool) uint8 { c.X = c.A; c.setZN(c.X); return 0 }
func tay(c *CPU, _ uint16, _ bool) uint8 { c.Y = c.A; c.setZN(c.Y); return 0 }
func txa(c *CPU, _ uint16, _ bool) uint8 { c.A = c.X; c.setZN(c.A); return 0 }
func tya(c *CPU, _ uint16, _ bool) uint8 { c.A = c.Y; c.setZN(c.A); return 0 }
func tsx(c *CPU, _ uint16, _ bool) uint8 { c.X = c.SP; c.setZN(c.X); return 0 }
func txs(c *CPU, _ uint16, _ bool) uint8 { c.SP = c.X; return 0 }

// Stack.

func pha(c *CPU, _ uint16, _ bool) uint8 { c.push(c.A); return 0 }

func pla(c *CPU, _ uint16, _ bool) uint8 {
	c.A = c.pop()
	c.setZN(c.A)
	return 0
}

func php(c *CPU, _ uint16, _ bool) uint8 {
	c.push(c.StatusByte() | bFlagMask)
	return 0
}

func plp(c *CPU, _ uint16, _ bool) uint8 {
	c.SetStatusByte(c.pop())
	return 0
}

// Flags.

func clc(c *CPU, _ uint16, _ bool) uint8 { c.C = false; return 0 }
func sec(c *CPU, _ uint16, _ bool) uint8 { c.C = true; return 0 }
func cli(c *CPU, _ uint16, _ bool) uint8 { c.I = false; return 0 }
func sei(c *CPU, _ uint16, _ bool) uint8 { c.I = true; return 0 }
func clv(c *CPU, _ uint16, _ bool) uint8 { c.V = false; return 0 }
func cld(c *CPU, _ uint16, _ bool) uint8 { c.D = false; return 0 }
func sed(c *CPU, _ uint16, _ bool) uint8 { c.D = true; return 0 }

// Control flow.

func jmp(c *CPU, address uint16, _ bool) uint8 {
	c.pc = address
	return 0
}

func jsr(c *CPU, address uint16, _ bool) uint8 {
	// JSR pushes the address of its own last byte.
	c.pushWord(c.pc - 1)
	c.pc = address
	return 0
}

func rts(c *CPU, _ uint16, _ bool) uint8 {
	c.pc = c.popWord() + 1
	return 0
}

func rti(c *CPU, _ uint16, _ bool) uint8 {
	c.SetStatusByte(c.pop())
	c.pc = c.popWord()
	return 0
}

func brk(c *CPU, _ uint16, _ bool) uint8 {
	c.pushWord(c.pc + 1)
	c.push(c.StatusByte() | bFlagMask)
	c.I = true
	c.pc = c.readWord(irqVector)
	return 0
}

// branch moves PC when taken; a taken branch costs one extra cycle,
// two when the target sits on a different page.
func branch(c *CPU, address uint16, crossed bool, taken bool) uint8 {
	if !taken {
		return 0
	}
	c.pc = address
	if crossed {
		return 2
	}
	return 1
}

func bcc(c *CPU, address uint16, crossed bool) uint8 { return branch(c, address, crossed, !c.C) }
func bcs(c *CPU, address uint16, crossed bool) uint8 { return branch(c, address, crossed, c.C) }
func bne(c *CPU, address uint16, crossed bool) uint8 { return branch(c, address, crossed, !c.Z) }
func beq(c *CPU, address uint16, crossed bool) uint8 { return branch(c, address, crossed, c.Z) }
func bpl(c *CPU, address uint16, crossed bool) uint8 { return branch(c, address, crossed, !c.N) }
func bmi(c *CPU, address uint16, crossed bool) uint8 { return branch(c, address, crossed, c.N) }
func bvc(c *CPU, address uint16, crossed bool) uint8 { return branch(c, address, crossed, !c.V) }
func bvs(c *CPU, address uint16, crossed bool) uint8 { return branch(c, address, crossed, c.V) }

func nop(c *CPU, _ uint16, _ bool) uint8 { return 0 }

// nopRead covers the undocumented NOP variants that still perform their
// operand fetch.
func nopRead(c *CPU, address uint16, _ bool) uint8 {
	c.memory.Read(address)
	return 0
}

func def(opcode uint8, name string, mode AddressingMode, cycles uint8, pagePenalty bool, fn opFunc) {
	instructions[opcode] = &instruction{
		name:        name,
		mode:        mode,
		cycles:      cycles,
		pagePenalty: pagePenalty,
		fn:          fn,
	}
}

func init() {
	// LDA
	def(0xA9, "LDA", Immediate, 2, false, lda)
	def(0xA5, "LDA", ZeroPage, 3, false, lda)
	def(0xB5, "LDA", ZeroPageX, 4, false, lda)
	def(0xAD, "LDA", Absolute, 4, false, lda)
	def(0xBD, "LDA", AbsoluteX, 4, true, lda)
	def(0xB9, "LDA", AbsoluteY, 4, true, lda)
	def(0xA1, "LDA", IndexedIndirect, 6, false, lda)
	def(0xB1, "LDA", IndirectIndexed, 5, true, lda)

	// LDX / LDY
	def(0xA2, "LDX", Immediate, 2, false, ldx)
	def(0xA6, "LDX", ZeroPage, 3, false, ldx)
	def(0xB6, "LDX", ZeroPageY, 4, false, ldx)
	def(0xAE, "LDX", Absolute, 4, false, ldx)
	def(0xBE, "LDX", AbsoluteY, 4, true, ldx)
	def(0xA0, "LDY", Immediate, 2, false, ldy)
	def(0xA4, "LDY", ZeroPage, 3, false, ldy)
	def(0xB4, "LDY", ZeroPageX, 4, false, ldy)
	def(0xAC, "LDY", Absolute, 4, false, ldy)
	def(0xBC, "LDY", AbsoluteX, 4, true, ldy)

	// STA / STX / STY
	def(0x85, "STA", ZeroPage, 3, false, sta)
	def(0x95, "STA", ZeroPageX, 4, false, sta)
	def(0x8D, "STA", Absolute, 4, false, sta)
	def(0x9D, "STA", AbsoluteX, 5, false, sta)
	def(0x99, "STA", AbsoluteY, 5, false, sta)
	def(0x81, "STA", IndexedIndirect, 6, false, sta)
	def(0x91, "STA", IndirectIndexed, 6, false, sta)
	def(0x86, "STX", ZeroPage, 3, false, stx)
	def(0x96, "STX", ZeroPageY, 4, false, stx)
	def(0x8E, "STX", Absolute, 4, false, stx)
	def(0x84, "STY", ZeroPage, 3, false, sty)
	def(0x94, "STY", ZeroPageX, 4, false, sty)
	def(0x8C, "STY", Absolute, 4, false, sty)

	// ADC / SBC
	def(0x69, "ADC", Immediate, 2, false, adc)
	def(0x65, "ADC", ZeroPage, 3, false, adc)
	def(0x75, "ADC", ZeroPageX, 4, false, adc)
	def(0x6D, "ADC", Absolute, 4, false, adc)
	def(0x7D, "ADC", AbsoluteX, 4, true, adc)
	def(0x79, "ADC", AbsoluteY, 4, true, adc)
	def(0x61, "ADC", IndexedIndirect, 6, false, adc)
	def(0x71, "ADC", IndirectIndexed, 5, true, adc)
	def(0xE9, "SBC", Immediate, 2, false, sbc)
	def(0xE5, "SBC", ZeroPage, 3, false, sbc)
	def(0xF5, "SBC", ZeroPageX, 4, false, sbc)
	def(0xED, "SBC", Absolute, 4, false, sbc)
	def(0xFD, "SBC", AbsoluteX, 4, true, sbc)
	def(0xF9, "SBC", AbsoluteY, 4, true, sbc)
	def(0xE1, "SBC", IndexedIndirect, 6, false, sbc)
	def(0xF1, "SBC", IndirectIndexed, 5, true, sbc)

	// AND / ORA / EOR / BIT
	def(0x29, "AND", Immediate, 2, false, and)
	def(0x25, "AND", ZeroPage, 3, false, and)
	def(0x35, "AND", ZeroPageX, 4, false, and)
	def(0x2D, "AND", Absolute, 4, false, and)
	def(0x3D, "AND", AbsoluteX, 4, true, and)
	def(0x39, "AND", AbsoluteY, 4, true, and)
	def(0x21, "AND", IndexedIndirect, 6, false, and)
	def(0x31, "AND", IndirectIndexed, 5, true, and)
	def(0x09, "ORA", Immediate, 2, false, ora)
	def(0x05, "ORA", ZeroPage, 3, false, ora)
	def(0x15, "ORA", ZeroPageX, 4, false, ora)
	def(0x0D, "ORA", Absolute, 4, false, ora)
	def(0x1D, "ORA", AbsoluteX, 4, true, ora)
	def(0x19, "ORA", AbsoluteY, 4, true, ora)
	def(0x01, "ORA", IndexedIndirect, 6, false, ora)
	def(0x11, "ORA", IndirectIndexed, 5, true, ora)
	def(0x49, "EOR", Immediate, 2, false, eor)
	def(0x45, "EOR", ZeroPage, 3, false, eor)
	def(0x55, "EOR", ZeroPageX, 4, false, eor)
	def(0x4D, "EOR", Absolute, 4, false, eor)
	def(0x5D, "EOR", AbsoluteX, 4, true, eor)
	def(0x59, "EOR", AbsoluteY, 4, true, eor)
	def(0x41, "EOR", IndexedIndirect, 6, false, eor)
	def(0x51, "EOR", IndirectIndexed, 5, true, eor)
	def(0x24, "BIT", ZeroPage, 3, false, bit)
	def(0x2C, "BIT", Absolute, 4, false, bit)

	// Shifts and rotates
	def(0x0A, "ASL", Accumulator, 2, false, aslA)
	def(0x06, "ASL", ZeroPage, 5, false, asl)
	def(0x16, "ASL", ZeroPageX, 6, false, asl)
	def(0x0E, "ASL", Absolute, 6, false, asl)
	def(0x1E, "ASL", AbsoluteX, 7, false, asl)
	def(0x4A, "LSR", Accumulator, 2, false, lsrA)
	def(0x46, "LSR", ZeroPage, 5, false, lsr)
	def(0x56, "LSR", ZeroPageX, 6, false, lsr)
	def(0x4E, "LSR", Absolute, 6, false, lsr)
	def(0x5E, "LSR", AbsoluteX, 7, false, lsr)
	def(0x2A, "ROL", Accumulator, 2, false, rolA)
	def(0x26, "ROL", ZeroPage, 5, false, rol)
	def(0x36, "ROL", ZeroPageX, 6, false, rol)
	def(0x2E, "ROL", Absolute, 6, false, rol)
	def(0x3E, "ROL", AbsoluteX, 7, false, rol)
	def(0x6A, "ROR", Accumulator, 2, false, rorA)
	def(0x66, "ROR", ZeroPage, 5, false, ror)
	def(0x76, "ROR", ZeroPageX, 6, false, ror)
	def(0x6E, "ROR", Absolute, 6, false, ror)
	def(0x7E, "ROR", AbsoluteX, 7, false, ror)

	// Compares
	def(0xC9, "CMP", Immediate, 2, false, cmp)
	def(0xC5, "CMP", ZeroPage, 3, false, cmp)
	def(0xD5, "CMP", ZeroPageX, 4, false, cmp)
	def(0xCD, "CMP", Absolute, 4, false, cmp)
	def(0xDD, "CMP", AbsoluteX, 4, true, cmp)
	def(0xD9, "CMP", AbsoluteY, 4, true, cmp)
	def(0xC1, "CMP", IndexedIndirect, 6, false, cmp)
	def(0xD1, "CMP", IndirectIndexed, 5, true, cmp)
	def(0xE0, "CPX", Immediate, 2, false, cpx)
	def(0xE4, "CPX", ZeroPage, 3, false, cpx)
	def(0xEC, "CPX", Absolute, 4, false, cpx)
	def(0xC0, "CPY", Immediate, 2, false, cpy)
	def(0xC4, "CPY", ZeroPage, 3, false, cpy)
	def(0xCC, "CPY", Absolute, 4, false, cpy)

	// Increments and decrements
	def(0xE6, "INC", ZeroPage, 5, false, inc)
	def(0xF6, "INC", ZeroPageX, 6, false, inc)
	def(0xEE, "INC", Absolute, 6, false, inc)
	def(0xFE, "INC", AbsoluteX, 7, false, inc)
	def(0xC6, "DEC", ZeroPage, 5, false, dec)
	def(0xD6, "DEC", ZeroPageX, 6, false, dec)
	def(0xCE, "DEC", Absolute, 6, false, dec)
	def(0xDE, "DEC", AbsoluteX, 7, false, dec)
	def(0xE8, "INX", Implied, 2, false, inx)
	def(0xC8, "INY", Implied, 2, false, iny)
	def(0xCA, "DEX", Implied, 2, false, dex)
	def(0x88, "DEY", Implied, 2, false, dey)

	// Transfers
	def(0xAA, "TAX", Implied, 2, false, tax)
	def(0xA8, "TAY", Implied, 2, false, tay)
	def(0x8A, "TXA", Implied, 2, false, txa)
	def(0x98, "TYA", Implied, 2, false, tya)
	def(0xBA, "TSX", Implied, 2, false, tsx)
	def(0x9A, "TXS", Implied, 2, false, txs)

	// Stack
	def(0x48, "PHA", Implied, 3, false, pha)
	def(0x68, "PLA", Implied, 4, false, pla)
	def(0x08, "PHP", Implied, 3, false, php)
	def(0x28, "PLP", Implied, 4, false, plp)

	// Flags
	def(0x18, "CLC", Implied, 2, false, clc)
	def(0x38, "SEC", Implied, 2, false, sec)
	def(0x58, "CLI", Implied, 2, false, cli)
	def(0x78, "SEI", Implied, 2, false, sei)
	def(0xB8, "CLV", Implied, 2, false, clv)
	def(0xD8, "CLD", Implied, 2, false, cld)
	def(0xF8, "SED", Implied, 2, false, sed)

	// Control flow
	def(0x4C, "JMP", Absolute, 3, false, jmp)
	def(0x6C, "JMP", Indirect, 5, false, jmp)
	def(0x20, "JSR", Absolute, 6, false, jsr)
	def(0x60, "RTS", Implied, 6, false, rts)
	def(0x40, "RTI", Implied, 6, false, rti)
	def(0x00, "BRK", Implied, 7, false, brk)

	// Branches
	def(0x10, "BPL", Relative, 2, false, bpl)
	def(0x30, "BMI", Relative, 2, false, bmi)
	def(0x50, "BVC", Relative, 2, false, bvc)
	def(0x70, "BVS", Relative, 2, false, bvs)
	def(0x90, "BCC", Relative, 2, false, bcc)
	def(0xB0, "BCS", Relative, 2, false, bcs)
	def(0xD0, "BNE", Relative, 2, false, bne)
	def(0xF0, "BEQ", Relative, 2, false, beq)

	// NOPs, documented and otherwise. Sound drivers ripped from games
	// do hit the undocumented ones.
	def(0xEA, "NOP", Implied, 2, false, nop)
	for _, opcode := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		def(opcode, "NOP", Implied, 2, false, nop)
	}
	def(0x80, "NOP", Immediate, 2, false, nopRead)
	for _, opcode := range []uint8{0x04, 0x44, 0x64} {
		def(opcode, "NOP", ZeroPage, 3, false, nopRead)
	}
	for _, opcode := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		def(opcode, "NOP", ZeroPageX, 4, false, nopRead)
	}
	def(0x0C, "NOP", Absolute, 4, false, nopRead)
	for _, opcode := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		def(opcode, "NOP", AbsoluteX, 4, true, nopRead)
	}
}
