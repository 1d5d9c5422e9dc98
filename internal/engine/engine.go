// Package engine implements the NSF playback controller: it owns the
// file, the bus, the CPU and the bank cache, and advances playback one
// tick at a time.
package engine

import (
	"errors"
	"io"
	"log"
	"os"
	"sync"

	pkgerrors "github.com/pkg/errors"

	"github.com/cyberic99/nestronic/internal/bankcache"
	"github.com/cyberic99/nestronic/internal/cpu"
	"github.com/cyberic99/nestronic/internal/memory"
	"github.com/cyberic99/nestronic/internal/nsf"
)

var (
	// ErrAlreadyOpen is returned when another engine is still live. The
	// CPU/bus binding is effectively process-global, so only one engine
	// may exist at a time.
	ErrAlreadyOpen = errors.New("engine: another engine is already open")

	// ErrBadLoadAddress is returned for tunes that claim to load below
	// $8000.
	ErrBadLoadAddress = errors.New("engine: load address below $8000")

	// ErrInvalidArg is returned for nil sinks and out-of-range song
	// indices.
	ErrInvalidArg = errors.New("engine: invalid argument")

	// ErrInvalidState is returned when PlaybackFrame is called while
	// the driver is not parked at its idle loop.
	ErrInvalidState = errors.New("engine: driver not at idle loop")

	// ErrClosed is returned for operations on a closed engine.
	ErrClosed = errors.New("engine: closed")

	// ErrRunaway is returned when INIT or PLAY never returns control to
	// the shim. The engine is unusable afterwards.
	ErrRunaway = errors.New("engine: driver did not return to idle loop")
)

// maxSteps bounds a single INIT or PLAY call. Real drivers finish a
// tick in a few thousand instructions; this is only a hang guard.
const maxSteps = 5_000_000

// romSize is the flat ROM image covering $8000-$FFFF.
const romSize = 0x8000

// The CPU register file and bus binding behave as process-global state,
// so a single active engine is enforced here.
var (
	activeMu sync.Mutex
	active   *Engine
)

// Engine is an open NSF file ready for playback.
type Engine struct {
	path   string
	file   *os.File
	header *nsf.Header

	bus   *memory.Bus
	cpu   *cpu.CPU
	cache *bankcache.Cache
	flat  []uint8

	initialized bool
	closed      bool

	frames uint64
}

// Open opens an NSF file and claims the active-engine slot. It fails
// with ErrAlreadyOpen while another engine is live.
func Open(path string) (*Engine, error) {
	activeMu.Lock()
	defer activeMu.Unlock()

	if active != nil {
		return nil, ErrAlreadyOpen
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "engine: open")
	}

	buf := make([]uint8, nsf.HeaderSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, pkgerrors.Wrap(err, "engine: read header")
	}

	header, err := nsf.ParseHeader(buf[:n])
	if err != nil {
		file.Close()
		return nil, err
	}

	e := &Engine{
		path:   path,
		file:   file,
		header: header,
	}
	e.bus = memory.NewBus(nil)
	e.cpu = cpu.New(e.bus)

	active = e
	return e, nil
}

// Header returns the parsed NSF header.
func (e *Engine) Header() *nsf.Header {
	return e.header
}

// LogHeader prints the tune's metadata.
func (e *Engine) LogHeader() {
	h := e.header
	log.Printf("nsf: %q by %q (%s)", h.SongName(), h.Artist(), h.Copyright())
	log.Printf("nsf: %d song(s), starting at %d", h.TotalSongs, h.StartingSong)
	log.Printf("nsf: load=$%04X init=$%04X play=$%04X bankswitched=%t",
		h.LoadAddress, h.InitAddress, h.PlayAddress, h.IsBankswitched())
	if h.UsesExtraChips() {
		log.Printf("nsf: expansion audio requested ($%02X); not emulated", h.ExtraChips)
	}
	if h.HasReservedBits() {
		log.Printf("nsf: reserved header bits set; continuing anyway")
	}
}

// buildShim assembles the 6502 driver stub installed at $1000:
//
//	LDA #song
//	LDX #region
//	JSR init
//	JSR play     <- $1007, the idle loop entry
//	JMP $1007
//	NOP ×4
func buildShim(song uint8, region uint8, init, play uint16) []uint8 {
	return []uint8{
		0xA9, song,
		0xA2, region,
		0x20, uint8(init & 0xFF), uint8(init >> 8),
		0x20, uint8(play & 0xFF), uint8(play >> 8),
		0x4C, uint8(memory.ShimIdle & 0xFF), uint8(memory.ShimIdle >> 8),
		0xEA, 0xEA, 0xEA, 0xEA,
	}
}

// PlaybackInit prepares playback of one song: it maps ROM, installs the
// shim, resets the CPU and runs the driver's INIT until the shim parks
// at its idle loop. A failed init closes the engine.
func (e *Engine) PlaybackInit(song int, sink memory.RegisterWriter) error {
	if e.closed {
		return ErrClosed
	}
	if err := e.playbackInit(song, sink); err != nil {
		e.Close()
		return err
	}
	e.initialized = true
	return nil
}

func (e *Engine) playbackInit(song int, sink memory.RegisterWriter) error {
	h := e.header
	if sink == nil {
		return ErrInvalidArg
	}
	if song < 0 || song >= int(h.TotalSongs) {
		return ErrInvalidArg
	}
	if h.LoadAddress < 0x8000 {
		return ErrBadLoadAddress
	}

	e.bus.Reset()
	e.bus.SetAPUSink(sink)

	var region uint8
	if h.Region() == nsf.RegionPAL {
		region = 1
	}
	e.bus.InstallShim(buildShim(uint8(song), region, h.InitAddress, h.PlayAddress))

	if h.IsBankswitched() {
		if err := e.initBanked(); err != nil {
			return err
		}
	} else {
		if err := e.initContiguous(); err != nil {
			return err
		}
	}

	e.cpu.Reset()
	e.frames = 0
	return e.runUntilIdle()
}

// initBanked maps ROM through the bank cache, loading the header's
// initial bank assignment.
func (e *Engine) initBanked() error {
	e.cache = bankcache.New(e.file, e.header.LoadAddress)
	e.flat = nil
	e.bus.SetCache(e.cache)

	for i, bank := range e.header.BankswitchInit {
		if err := e.cache.LoadBank(i, bank); err != nil {
			return err
		}
	}
	return nil
}

// initContiguous reads the whole body into a flat 32KB image at the
// load address. All eight ROM windows alias this buffer; no LRU is
// involved.
func (e *Engine) initContiguous() error {
	h := e.header
	e.cache = nil
	e.flat = make([]uint8, romSize)

	if _, err := e.file.Seek(nsf.BodyOffset, io.SeekStart); err != nil {
		return pkgerrors.Wrap(err, "engine: seek body")
	}

	n := int(0xFFFF - h.LoadAddress)
	dst := e.flat[h.LoadAddress-0x8000:]
	if n > len(dst) {
		n = len(dst)
	}
	if _, err := io.ReadFull(e.file, dst[:n]); err != nil &&
		!errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return pkgerrors.Wrap(err, "engine: read body")
	}

	e.bus.SetFlatROM(e.flat)
	return nil
}

// runUntilIdle steps the CPU until the shim's idle loop is reached,
// surfacing any bank-load failure that happened inside a step.
func (e *Engine) runUntilIdle() error {
	for steps := 0; ; steps++ {
		if steps >= maxSteps {
			return ErrRunaway
		}
		e.cpu.Step()
		if err := e.bus.TakeLoadError(); err != nil {
			return err
		}
		if e.cpu.PC() == memory.ShimIdle {
			return nil
		}
	}
}

// PlaybackFrame advances playback one tick: a single JSR play / JMP
// cycle of the shim. The CPU must be parked at the idle loop.
func (e *Engine) PlaybackFrame() error {
	if e.closed {
		return ErrClosed
	}
	if !e.initialized || e.cpu.PC() != memory.ShimIdle {
		return ErrInvalidState
	}

	// Leave the idle loop first, then run until it comes back around.
	e.cpu.Step()
	if err := e.bus.TakeLoadError(); err != nil {
		return err
	}
	if err := e.runUntilIdle(); err != nil {
		return err
	}

	e.frames++
	return nil
}

// Frames returns how many playback ticks completed since init.
func (e *Engine) Frames() uint64 {
	return e.frames
}

// Bus exposes the engine's bus, mainly for register inspection.
func (e *Engine) Bus() *memory.Bus {
	return e.bus
}

// Close releases the file and the active-engine slot. It is safe to
// call more than once.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	e.initialized = false
	e.cache = nil
	e.flat = nil

	var err error
	if e.file != nil {
		err = e.file.Close()
		e.file = nil
	}

	activeMu.Lock()
	if active == e {
		active = nil
	}
	activeMu.Unlock()

	if err != nil {
		return pkgerrors.Wrap(err, "engine: close")
	}
	return nil
}
