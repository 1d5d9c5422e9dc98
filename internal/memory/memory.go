// Package memory implements the NES bus for NSF playback: the 16-bit
// address decoder routing CPU accesses to RAM, the driver shim, the APU
// register shadow, mapper registers and ROM.
package memory

import (
	"log"

	"github.com/cyberic99/nestronic/internal/bankcache"
)

// Address map. Anything outside these ranges reads as 0; writes there
// are dropped.
const (
	ramEnd = 0x07FF

	shimBase = 0x1000
	shimEnd  = 0x107F
	ShimSize = 0x80

	apuBase = 0x4000
	apuEnd  = 0x4017

	// Controller strobe register; shadowed but never forwarded to the
	// APU sink.
	apuStrobe = 0x4016

	// APU frame counter register and its power-up value.
	apuFrameCounter     = 0x17
	apuFrameCounterInit = 0x40

	bankRegBase = 0x5FF8
	bankRegEnd  = 0x5FFF

	romBase = 0x8000
	romEnd  = 0xFFF9

	vectorBase = 0xFFFA

	// ShimEntry is where the reset vector points; ShimIdle is the PC
	// the driver parks at between playback ticks.
	ShimEntry = 0x1000
	ShimIdle  = 0x1007
)

// RegisterWriter receives every APU register write the tune performs,
// in 6502 program order.
type RegisterWriter interface {
	WriteRegister(address uint16, value uint8)
}

// Bus is the NSF memory map. ROM reads resolve either through the bank
// cache or, for non-bankswitched tunes, a flat 32KB buffer.
type Bus struct {
	ram      [0x800]uint8
	shim     [ShimSize]uint8
	apuRegs  [0x18]uint8
	bankRegs [8]uint8
	vectors  [6]uint8

	cache *bankcache.Cache
	flat  []uint8

	sink RegisterWriter

	// First bank-cache failure seen inside a CPU-driven write. The bus
	// write path cannot return an error, so the controller collects it
	// between steps.
	loadErr error

	droppedWrites uint64
	debug         bool
}

// NewBus creates a bus with no ROM mapped. The cache may be nil for
// tunes that load contiguously.
func NewBus(cache *bankcache.Cache) *Bus {
	b := &Bus{cache: cache}
	b.Reset()
	return b
}

// Reset clears RAM, the APU shadow and the bank registers, and seeds
// the APU frame counter shadow with its power-up state.
func (b *Bus) Reset() {
	b.ram = [0x800]uint8{}
	b.apuRegs = [0x18]uint8{}
	b.bankRegs = [8]uint8{}
	b.apuRegs[apuFrameCounter] = apuFrameCounterInit
	b.loadErr = nil
	b.droppedWrites = 0
}

// SetAPUSink registers the sink that receives APU register writes.
func (b *Bus) SetAPUSink(sink RegisterWriter) {
	b.sink = sink
}

// SetCache installs the bank cache used for ROM resolution.
func (b *Bus) SetCache(cache *bankcache.Cache) {
	b.cache = cache
	b.flat = nil
}

// SetFlatROM installs a contiguous 32KB ROM image covering
// $8000-$FFFF. Bank registers remain writable but stop affecting the
// ROM mapping.
func (b *Bus) SetFlatROM(rom []uint8) {
	b.flat = rom
	b.cache = nil
}

// InstallShim copies the driver stub into $1000-$107F and points the
// reset vector at its entry.
func (b *Bus) InstallShim(stub []uint8) {
	b.shim = [ShimSize]uint8{}
	copy(b.shim[:], stub)

	b.vectors = [6]uint8{}
	b.vectors[2] = uint8(ShimEntry & 0xFF) // reset vector, little-endian
	b.vectors[3] = uint8(ShimEntry >> 8)
}

// Read reads a byte from the given address.
func (b *Bus) Read(address uint16) uint8 {
	switch {
	case address <= ramEnd:
		return b.ram[address]

	case address >= shimBase && address <= shimEnd:
		return b.shim[address-shimBase]

	case address >= apuBase && address <= apuEnd:
		return b.apuRegs[address-apuBase]

	case address >= bankRegBase && address <= bankRegEnd:
		return b.bankRegs[address-bankRegBase]

	case address >= romBase && address <= romEnd:
		if b.flat != nil {
			return b.flat[address-romBase]
		}
		if b.cache != nil {
			return b.cache.Read(address)
		}
		return 0

	case address >= vectorBase:
		return b.vectors[address-vectorBase]

	default:
		return 0
	}
}

// Write writes a byte to the given address.
func (b *Bus) Write(address uint16, value uint8) {
	switch {
	case address <= ramEnd:
		b.ram[address] = value

	case address >= apuBase && address <= apuEnd:
		b.apuRegs[address-apuBase] = value
		if address != apuStrobe && b.sink != nil {
			b.sink.WriteRegister(address, value)
		}

	case address >= bankRegBase && address <= bankRegEnd:
		reg := int(address - bankRegBase)
		if b.bankRegs[reg] == value {
			return
		}
		b.bankRegs[reg] = value
		if b.cache != nil {
			if err := b.cache.LoadBank(reg, value); err != nil && b.loadErr == nil {
				b.loadErr = err
			}
		}

	default:
		// ROM, shim, vectors and unmapped space ignore writes.
		b.droppedWrites++
		if b.debug {
			log.Printf("bus: dropped write $%04X = $%02X", address, value)
		}
	}
}

// TakeLoadError returns and clears the first bank-cache failure
// recorded since the last call.
func (b *Bus) TakeLoadError() error {
	err := b.loadErr
	b.loadErr = nil
	return err
}

// APURegister returns the last value written to an APU register.
func (b *Bus) APURegister(i int) uint8 {
	return b.apuRegs[i]
}

// BankRegister returns the current value of a mapper register.
func (b *Bus) BankRegister(i int) uint8 {
	return b.bankRegs[i]
}

// DroppedWrites returns how many writes hit read-only or unmapped
// space. Diagnostic only.
func (b *Bus) DroppedWrites() uint64 {
	return b.droppedWrites
}

// EnableDebug turns on logging of dropped writes.
func (b *Bus) EnableDebug(enable bool) {
	b.debug = enable
}
