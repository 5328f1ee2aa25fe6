package cpu

// execute runs one decoded instruction. PC has already been advanced past the
// instruction, and addr is the resolved effective address (the branch target
// for relative mode). It returns extra cycles beyond the table value, which
// only taken branches incur.
func (c *CPU) execute(name operation, mode addrMode, addr uint16, crossed bool) int {
	switch name {
	case opLDA:
		c.A = c.bus.Read(addr)
		c.setZN(c.A)
	case opLDX:
		c.X = c.bus.Read(addr)
		c.setZN(c.X)
	case opLDY:
		c.Y = c.bus.Read(addr)
		c.setZN(c.Y)
	case opSTA:
		c.bus.Write(addr, c.A)
	case opSTX:
		c.bus.Write(addr, c.X)
	case opSTY:
		c.bus.Write(addr, c.Y)

	case opTAX:
		c.X = c.A
		c.setZN(c.X)
	case opTAY:
		c.Y = c.A
		c.setZN(c.Y)
	case opTSX:
		c.X = c.SP
		c.setZN(c.X)
	case opTXA:
		c.A = c.X
		c.setZN(c.A)
	case opTXS:
		c.SP = c.X
	case opTYA:
		c.A = c.Y
		c.setZN(c.A)

	case opADC:
		c.adc(c.bus.Read(addr))
	case opSBC:
		c.adc(^c.bus.Read(addr))

	case opAND:
		c.A &= c.bus.Read(addr)
		c.setZN(c.A)
	case opORA:
		c.A |= c.bus.Read(addr)
		c.setZN(c.A)
	case opEOR:
		c.A ^= c.bus.Read(addr)
		c.setZN(c.A)

	case opCMP:
		c.compare(c.A, c.bus.Read(addr))
	case opCPX:
		c.compare(c.X, c.bus.Read(addr))
	case opCPY:
		c.compare(c.Y, c.bus.Read(addr))

	case opBIT:
		v := c.bus.Read(addr)
		c.setFlag(flagZ, c.A&v == 0)
		c.setFlag(flagV, v&0x40 != 0)
		c.setFlag(flagN, v&0x80 != 0)

	case opASL:
		c.modify(mode, addr, c.asl)
	case opLSR:
		c.modify(mode, addr, c.lsr)
	case opROL:
		c.modify(mode, addr, c.rol)
	case opROR:
		c.modify(mode, addr, c.ror)

	case opINC:
		v := c.bus.Read(addr) + 1
		c.bus.Write(addr, v)
		c.setZN(v)
	case opDEC:
		v := c.bus.Read(addr) - 1
		c.bus.Write(addr, v)
		c.setZN(v)
	case opINX:
		c.X++
		c.setZN(c.X)
	case opINY:
		c.Y++
		c.setZN(c.Y)
	case opDEX:
		c.X--
		c.setZN(c.X)
	case opDEY:
		c.Y--
		c.setZN(c.Y)

	case opJMP:
		c.PC = addr
	case opJSR:
		c.push16(c.PC - 1)
		c.PC = addr
	case opRTS:
		c.PC = c.pull16() + 1
	case opRTI:
		c.P = c.pull()&^flagB | flagU
		c.PC = c.pull16()

	case opBCC:
		return c.branch(addr, crossed, !c.flag(flagC))
	case opBCS:
		return c.branch(addr, crossed, c.flag(flagC))
	case opBNE:
		return c.branch(addr, crossed, !c.flag(flagZ))
	case opBEQ:
		return c.branch(addr, crossed, c.flag(flagZ))
	case opBPL:
		return c.branch(addr, crossed, !c.flag(flagN))
	case opBMI:
		return c.branch(addr, crossed, c.flag(flagN))
	case opBVC:
		return c.branch(addr, crossed, !c.flag(flagV))
	case opBVS:
		return c.branch(addr, crossed, c.flag(flagV))

	case opPHA:
		c.push(c.A)
	case opPHP:
		// PHP pushes with B set, like BRK.
		c.push(c.P | flagB | flagU)
	case opPLA:
		c.A = c.pull()
		c.setZN(c.A)
	case opPLP:
		c.P = c.pull()&^flagB | flagU

	case opCLC:
		c.setFlag(flagC, false)
	case opSEC:
		c.setFlag(flagC, true)
	case opCLI:
		c.setFlag(flagI, false)
	case opSEI:
		c.setFlag(flagI, true)
	case opCLD:
		c.setFlag(flagD, false)
	case opSED:
		c.setFlag(flagD, true)
	case opCLV:
		c.setFlag(flagV, false)

	case opBRK:
		// The byte after BRK is padding; the pushed return address
		// skips it.
		c.push16(c.PC + 1)
		c.push(c.P | flagB | flagU)
		c.setFlag(flagI, true)
		c.PC = c.read16(irqVector)

	case opNOP:
		// Multi-byte NOP variants still perform the operand read.
		if mode != modeImplied {
			c.bus.Read(addr)
		}

	case opLAX:
		c.A = c.bus.Read(addr)
		c.X = c.A
		c.setZN(c.A)
	case opSAX:
		c.bus.Write(addr, c.A&c.X)
	case opDCP:
		v := c.bus.Read(addr) - 1
		c.bus.Write(addr, v)
		c.compare(c.A, v)
	case opISB:
		v := c.bus.Read(addr) + 1
		c.bus.Write(addr, v)
		c.adc(^v)
	case opSLO:
		v := c.asl(c.bus.Read(addr))
		c.bus.Write(addr, v)
		c.A |= v
		c.setZN(c.A)
	case opRLA:
		v := c.rol(c.bus.Read(addr))
		c.bus.Write(addr, v)
		c.A &= v
		c.setZN(c.A)
	case opSRE:
		v := c.lsr(c.bus.Read(addr))
		c.bus.Write(addr, v)
		c.A ^= v
		c.setZN(c.A)
	case opRRA:
		v := c.ror(c.bus.Read(addr))
		c.bus.Write(addr, v)
		c.adc(v)
	}
	return 0
}

// adc adds value and carry into A. SBC reuses it with the operand inverted,
// which makes borrow the complement of carry.
func (c *CPU) adc(value uint8) {
	a := c.A
	carry := c.P & flagC
	sum := uint16(a) + uint16(value) + uint16(carry)
	c.A = uint8(sum)
	c.setFlag(flagC, sum > 0xFF)
	c.setFlag(flagV, (a^c.A)&(value^c.A)&0x80 != 0)
	c.setZN(c.A)
}

func (c *CPU) compare(reg, value uint8) {
	c.setFlag(flagC, reg >= value)
	c.setZN(reg - value)
}

// modify applies a read-modify-write operation to the accumulator or memory,
// depending on the addressing mode.
func (c *CPU) modify(mode addrMode, addr uint16, f func(uint8) uint8) {
	if mode == modeAccumulator {
		c.A = f(c.A)
		return
	}
	v := c.bus.Read(addr)
	// Real hardware writes the unmodified value back first; mappers that
	// watch writes depend on seeing both.
	c.bus.Write(addr, v)
	c.bus.Write(addr, f(v))
}

func (c *CPU) asl(v uint8) uint8 {
	c.setFlag(flagC, v&0x80 != 0)
	v <<= 1
	c.setZN(v)
	return v
}

func (c *CPU) lsr(v uint8) uint8 {
	c.setFlag(flagC, v&0x01 != 0)
	v >>= 1
	c.setZN(v)
	return v
}

func (c *CPU) rol(v uint8) uint8 {
	carry := c.P & flagC
	c.setFlag(flagC, v&0x80 != 0)
	v = v<<1 | carry
	c.setZN(v)
	return v
}

func (c *CPU) ror(v uint8) uint8 {
	carry := c.P & flagC
	c.setFlag(flagC, v&0x01 != 0)
	v = v>>1 | carry<<7
	c.setZN(v)
	return v
}

// branch jumps to target when taken, costing one extra cycle, or two when the
// target sits on a different page from the next instruction.
func (c *CPU) branch(target uint16, crossed, taken bool) int {
	if !taken {
		return 0
	}
	c.PC = target
	if crossed {
		return 2
	}
	return 1
}
