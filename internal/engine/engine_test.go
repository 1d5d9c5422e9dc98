package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyberic99/nestronic/internal/bankcache"
	"github.com/cyberic99/nestronic/internal/memory"
	"github.com/cyberic99/nestronic/internal/nsf"
)

type recordingSink struct {
	writes []apuWrite
}

type apuWrite struct {
	address uint16
	value   uint8
}

func (s *recordingSink) WriteRegister(address uint16, value uint8) {
	s.writes = append(s.writes, apuWrite{address, value})
}

// testBody is a minimal driver: INIT stores the song number (passed in
// A) to $00 and returns; PLAY pokes two APU registers plus the
// controller strobe, then returns.
//
//	$8000  STA $00        ; init
//	$8002  RTS
//	$8003  LDA #$0F       ; play
//	$8005  STA $4015
//	$8008  LDA #$3F
//	$800A  STA $4000
//	$800D  STA $4016      ; strobe, must not reach the sink
//	$8010  RTS
//	$8011  .byte $AA $BB $CC
var testBody = []uint8{
	0x85, 0x00,
	0x60,
	0xA9, 0x0F,
	0x8D, 0x15, 0x40,
	0xA9, 0x3F,
	0x8D, 0x00, 0x40,
	0x8D, 0x16, 0x40,
	0x60,
	0xAA, 0xBB, 0xCC,
}

func writeRaw(path string, data []uint8) error {
	return os.WriteFile(path, data, 0o644)
}

func writeTune(t *testing.T, builder *nsf.TuneBuilder) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tune.nsf")
	if err := builder.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func contiguousTune(t *testing.T) string {
	return writeTune(t, nsf.NewTuneBuilder().
		WithSongs(2, 0).
		WithInitAddress(0x8000).
		WithPlayAddress(0x8003).
		WithBody(testBody))
}

func openTune(t *testing.T, path string) *Engine {
	t.Helper()
	eng, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestOpen_Exclusive(t *testing.T) {
	a := contiguousTune(t)
	b := contiguousTune(t)

	engA, err := Open(a)
	if err != nil {
		t.Fatalf("Open(a) failed: %v", err)
	}

	if _, err := Open(b); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("second Open = %v, want ErrAlreadyOpen", err)
	}

	if err := engA.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	engB, err := Open(b)
	if err != nil {
		t.Fatalf("Open(b) after Close failed: %v", err)
	}
	engB.Close()
}

func TestPlaybackInit_Contiguous(t *testing.T) {
	eng := openTune(t, contiguousTune(t))
	sink := &recordingSink{}

	if err := eng.PlaybackInit(0, sink); err != nil {
		t.Fatalf("PlaybackInit failed: %v", err)
	}

	// The body is mapped verbatim at the load address.
	if got := eng.bus.Read(0x8000); got != 0x85 {
		t.Errorf("Read($8000) = $%02X, want $85", got)
	}
	for i, want := range []uint8{0xAA, 0xBB, 0xCC} {
		if got := eng.bus.Read(uint16(0x8011 + i)); got != want {
			t.Errorf("Read($%04X) = $%02X, want $%02X", 0x8011+i, got, want)
		}
	}

	// INIT ran with the song number in A.
	if got := eng.bus.Read(0x0000); got != 0 {
		t.Errorf("RAM[$00] = %d, want 0 (song index)", got)
	}

	// INIT itself writes no APU registers.
	if len(sink.writes) != 0 {
		t.Errorf("init emitted %d APU writes, want 0", len(sink.writes))
	}

	// The driver parks at the idle loop.
	if pc := eng.cpu.PC(); pc != memory.ShimIdle {
		t.Errorf("PC = $%04X, want $%04X", pc, memory.ShimIdle)
	}
}

func TestPlaybackInit_ShimBytes(t *testing.T) {
	eng := openTune(t, contiguousTune(t))
	if err := eng.PlaybackInit(1, &recordingSink{}); err != nil {
		t.Fatalf("PlaybackInit failed: %v", err)
	}

	want := []uint8{
		0xA9, 0x01, // LDA #1
		0xA2, 0x00, // LDX #0 (NTSC)
		0x20, 0x00, 0x80, // JSR $8000
		0x20, 0x03, 0x80, // JSR $8003
		0x4C, 0x07, 0x10, // JMP $1007
		0xEA, 0xEA, 0xEA, 0xEA,
	}
	for i, w := range want {
		if got := eng.bus.Read(uint16(0x1000 + i)); got != w {
			t.Errorf("shim[$%04X] = $%02X, want $%02X", 0x1000+i, got, w)
		}
	}

	// Song 1 landed in A and therefore in RAM via INIT.
	if got := eng.bus.Read(0x0000); got != 1 {
		t.Errorf("RAM[$00] = %d, want 1", got)
	}

	// Reset vector points at the shim entry.
	if lo, hi := eng.bus.Read(0xFFFC), eng.bus.Read(0xFFFD); lo != 0x00 || hi != 0x10 {
		t.Errorf("reset vector = $%02X%02X, want $1000", hi, lo)
	}
}

func TestPlaybackFrame_APUOrdering(t *testing.T) {
	eng := openTune(t, contiguousTune(t))
	sink := &recordingSink{}
	if err := eng.PlaybackInit(0, sink); err != nil {
		t.Fatalf("PlaybackInit failed: %v", err)
	}

	if err := eng.PlaybackFrame(); err != nil {
		t.Fatalf("PlaybackFrame failed: %v", err)
	}

	want := []apuWrite{{0x4015, 0x0F}, {0x4000, 0x3F}}
	if len(sink.writes) != len(want) {
		t.Fatalf("sink writes = %v, want %v", sink.writes, want)
	}
	for i := range want {
		if sink.writes[i] != want[i] {
			t.Errorf("write %d = %v, want %v", i, sink.writes[i], want[i])
		}
	}

	// The strobe write is shadowed but suppressed.
	if got := eng.bus.Read(0x4016); got != 0x3F {
		t.Errorf("Read($4016) = $%02X, want $3F", got)
	}

	if eng.Frames() != 1 {
		t.Errorf("Frames = %d, want 1", eng.Frames())
	}

	// A second tick emits the same writes again, in order.
	if err := eng.PlaybackFrame(); err != nil {
		t.Fatalf("second PlaybackFrame failed: %v", err)
	}
	if len(sink.writes) != 4 {
		t.Errorf("sink writes after two ticks = %d, want 4", len(sink.writes))
	}
}

func TestPlaybackInit_Banked(t *testing.T) {
	const load = 0x8123

	// The body begins mid-bank at the load address padding; everything
	// before it in bank 0 reads as zero.
	body := make([]uint8, (bankcache.BankSize-0x123)+7*bankcache.BankSize)
	copy(body, testBody)

	path := writeTune(t, nsf.NewTuneBuilder().
		WithLoadAddress(load).
		WithInitAddress(load).
		WithPlayAddress(load+3).
		WithBankswitchInit([8]uint8{0, 1, 2, 3, 4, 5, 6, 7}).
		WithBody(body))

	eng := openTune(t, path)
	sink := &recordingSink{}
	if err := eng.PlaybackInit(0, sink); err != nil {
		t.Fatalf("PlaybackInit failed: %v", err)
	}

	for _, addr := range []uint16{0x8000, 0x8050, 0x8122} {
		if got := eng.bus.Read(addr); got != 0 {
			t.Errorf("Read($%04X) = $%02X, want 0 inside bank 0 padding", addr, got)
		}
	}
	if got := eng.bus.Read(load); got != 0x85 {
		t.Errorf("Read($%04X) = $%02X, want $85 (first body byte)", load, got)
	}

	if err := eng.PlaybackFrame(); err != nil {
		t.Fatalf("PlaybackFrame failed: %v", err)
	}
	if len(sink.writes) == 0 || sink.writes[0] != (apuWrite{0x4015, 0x0F}) {
		t.Errorf("banked play tick writes = %v", sink.writes)
	}
}

func TestPlaybackFrame_InvalidState(t *testing.T) {
	eng := openTune(t, contiguousTune(t))

	if err := eng.PlaybackFrame(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("PlaybackFrame before init = %v, want ErrInvalidState", err)
	}
}

func TestPlaybackInit_BadLoadAddress(t *testing.T) {
	path := writeTune(t, nsf.NewTuneBuilder().
		WithLoadAddress(0x7000).
		WithInitAddress(0x7000).
		WithPlayAddress(0x7000).
		WithBody(testBody))

	eng, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := eng.PlaybackInit(0, &recordingSink{}); !errors.Is(err, ErrBadLoadAddress) {
		t.Fatalf("PlaybackInit = %v, want ErrBadLoadAddress", err)
	}

	// A failed init closes the engine and releases the exclusive slot.
	if err := eng.PlaybackInit(0, &recordingSink{}); !errors.Is(err, ErrClosed) {
		t.Errorf("PlaybackInit after failure = %v, want ErrClosed", err)
	}
	eng2 := openTune(t, contiguousTune(t))
	_ = eng2
}

func TestPlaybackInit_InvalidArgs(t *testing.T) {
	t.Run("nil sink", func(t *testing.T) {
		eng, err := Open(contiguousTune(t))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer eng.Close()
		if err := eng.PlaybackInit(0, nil); !errors.Is(err, ErrInvalidArg) {
			t.Errorf("PlaybackInit(nil sink) = %v, want ErrInvalidArg", err)
		}
	})

	t.Run("song out of range", func(t *testing.T) {
		eng, err := Open(contiguousTune(t))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer eng.Close()
		if err := eng.PlaybackInit(2, &recordingSink{}); !errors.Is(err, ErrInvalidArg) {
			t.Errorf("PlaybackInit(song 2 of 2) = %v, want ErrInvalidArg", err)
		}
	})
}

func TestOpen_BadFiles(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		data := nsf.NewTuneBuilder().Build()
		data[0] = 0x00
		path := filepath.Join(t.TempDir(), "bad.nsf")
		if err := writeRaw(path, data); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if _, err := Open(path); !errors.Is(err, nsf.ErrBadMagic) {
			t.Errorf("Open = %v, want ErrBadMagic", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		data := nsf.NewTuneBuilder().Build()
		path := filepath.Join(t.TempDir(), "short.nsf")
		if err := writeRaw(path, data[:40]); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if _, err := Open(path); !errors.Is(err, nsf.ErrShortHeader) {
			t.Errorf("Open = %v, want ErrShortHeader", err)
		}
	})
}

func TestClose_Idempotent(t *testing.T) {
	eng, err := Open(contiguousTune(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
}
