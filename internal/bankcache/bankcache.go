// Package bankcache implements the fixed-slot LRU cache that backs
// bank-switched NSF ROM reads.
package bankcache

import (
	"errors"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"

	"github.com/cyberic99/nestronic/internal/nsf"
)

const (
	// NumSlots is the number of 4KB cache slots kept resident.
	NumSlots = 10

	// BankSize is the size of one ROM bank.
	BankSize = 0x1000

	// NumWindows is the number of 4KB ROM windows covering $8000-$FFFF.
	NumWindows = 8

	// lruEmpty marks an unused LRU entry.
	lruEmpty = -1

	// noSlot marks a ROM window with no resident bank behind it.
	noSlot = -1
)

var (
	// ErrInvalidArg is returned for an out-of-range window index.
	ErrInvalidArg = errors.New("bankcache: invalid argument")

	// ErrInternal indicates an LRU bookkeeping invariant was violated.
	// It means a bug in the cache, not a bad input file.
	ErrInternal = errors.New("bankcache: internal invariant violated")
)

// Cache resolves 4KB ROM banks from the NSF body against a small pool
// of RAM-resident slots. ROM windows hold slot indices, never pointers,
// so a stale window is always detectable as an integer mismatch.
type Cache struct {
	file        *os.File
	loadAddress uint16

	// Slot pool.
	slots      [NumSlots][BankSize]uint8
	slotBank   [NumSlots]uint8
	slotLoaded [NumSlots]bool

	// Resident bank ids ordered most-recently-used first. Unused
	// entries hold lruEmpty.
	lru [NumSlots]int16

	// ROM windows: window[w] is a slot index or noSlot.
	window     [NumWindows]int8
	windowBank [NumWindows]uint8

	// Reads that hit an unmapped window return 0 and bump this.
	unmappedReads uint64
}

// New creates a cache over the NSF body in file. The load address
// determines how bank 0 is aligned within the file (see bankOffset).
func New(file *os.File, loadAddress uint16) *Cache {
	c := &Cache{
		file:        file,
		loadAddress: loadAddress,
	}
	c.Reset()
	return c
}

// Reset drops every resident bank and unmaps all windows.
func (c *Cache) Reset() {
	for i := range c.slots {
		c.slots[i] = [BankSize]uint8{}
		c.slotBank[i] = 0
		c.slotLoaded[i] = false
		c.lru[i] = lruEmpty
	}
	for w := range c.window {
		c.window[w] = noSlot
		c.windowBank[w] = 0
	}
	c.unmappedReads = 0
}

// LoadBank makes bank resident and points ROM window w at it.
func (c *Cache) LoadBank(w int, bank uint8) error {
	if w < 0 || w >= NumWindows {
		return ErrInvalidArg
	}

	// Hit: the bank is already resident somewhere in the pool.
	for i := 0; i < NumSlots; i++ {
		if c.slotLoaded[i] && c.slotBank[i] == bank {
			c.window[w] = int8(i)
			c.windowBank[w] = bank
			return c.touch(bank)
		}
	}

	victim, err := c.pickVictim()
	if err != nil {
		return err
	}

	if err := c.fill(victim, bank); err != nil {
		return err
	}

	c.slotLoaded[victim] = true
	c.slotBank[victim] = bank
	c.window[w] = int8(victim)
	c.windowBank[w] = bank
	return c.touch(bank)
}

// pickVictim returns the slot index to fill. Empty slots are used in
// index order before anything is evicted; otherwise the LRU-tail bank
// goes.
func (c *Cache) pickVictim() (int, error) {
	for i := 0; i < NumSlots; i++ {
		if !c.slotLoaded[i] {
			return i, nil
		}
	}

	oldest := c.lru[NumSlots-1]
	if oldest == lruEmpty {
		// Every slot is loaded, so the LRU list must be full.
		return 0, ErrInternal
	}

	victim := noSlot
	for i := 0; i < NumSlots; i++ {
		if c.slotLoaded[i] && int16(c.slotBank[i]) == oldest {
			victim = i
			break
		}
	}
	if victim == noSlot {
		return 0, ErrInternal
	}

	evicted := c.slotBank[victim]
	c.lru[NumSlots-1] = lruEmpty
	c.slotLoaded[victim] = false
	c.slotBank[victim] = 0

	// Null out any window still showing the evicted bank.
	for w := range c.window {
		if c.window[w] != noSlot && c.windowBank[w] == evicted {
			c.window[w] = noSlot
			c.windowBank[w] = 0
		}
	}

	return victim, nil
}

// bankOffset returns the file offset, in-slot offset and byte count for
// a bank. Bank 0 sits right after the header and is short by the load
// address padding, which it keeps as its in-slot offset so the file's
// original alignment is preserved. Later banks are full 4KB records.
func (c *Cache) bankOffset(bank uint8) (fileOff int64, slotOff, n int) {
	padding := int(c.loadAddress & 0x0FFF)
	if bank == 0 {
		return nsf.BodyOffset, padding, BankSize - padding
	}
	fileOff = nsf.BodyOffset + int64(BankSize-padding) + int64(BankSize)*int64(bank-1)
	return fileOff, 0, BankSize
}

// fill zeroes a slot and reads the bank's bytes from the file. A short
// read at EOF is fine; the remainder of the slot stays zero.
func (c *Cache) fill(slot int, bank uint8) error {
	c.slots[slot] = [BankSize]uint8{}

	fileOff, slotOff, n := c.bankOffset(bank)
	if _, err := c.file.Seek(fileOff, io.SeekStart); err != nil {
		return pkgerrors.Wrapf(err, "bankcache: seek bank %d", bank)
	}

	if _, err := io.ReadFull(c.file, c.slots[slot][slotOff:slotOff+n]); err != nil &&
		!errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return pkgerrors.Wrapf(err, "bankcache: read bank %d", bank)
	}
	return nil
}

// touch moves bank to the head of the LRU list.
func (c *Cache) touch(bank uint8) error {
	id := int16(bank)
	if c.lru[0] == id {
		return nil
	}

	for i := 1; i < NumSlots; i++ {
		if c.lru[i] == id {
			copy(c.lru[1:i+1], c.lru[0:i])
			c.lru[0] = id
			return nil
		}
	}

	// Not resident in the list: there must be room at the tail.
	if c.lru[NumSlots-1] != lruEmpty {
		return ErrInternal
	}
	copy(c.lru[1:], c.lru[0:NumSlots-1])
	c.lru[0] = id
	return nil
}

// Read returns the ROM byte visible at addr ($8000-$FFF9) and marks the
// resolved bank most-recently used. An unmapped window reads as 0.
func (c *Cache) Read(addr uint16) uint8 {
	w := int((addr >> 12) & 0x7)
	slot := c.window[w]
	if slot == noSlot {
		c.unmappedReads++
		return 0
	}
	c.touch(c.windowBank[w])
	return c.slots[slot][addr&0x0FFF]
}

// WindowBank returns the bank id currently shown by ROM window w, and
// whether the window is mapped at all.
func (c *Cache) WindowBank(w int) (uint8, bool) {
	if w < 0 || w >= NumWindows || c.window[w] == noSlot {
		return 0, false
	}
	return c.windowBank[w], true
}

// UnmappedReads returns how many reads hit an unmapped window. The
// count is diagnostic only; such reads are not errors.
func (c *Cache) UnmappedReads() uint64 {
	return c.unmappedReads
}
