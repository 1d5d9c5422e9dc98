package nsf

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestParseHeader_RoundTrip(t *testing.T) {
	original := NewTuneBuilder().
		WithSongs(12, 3).
		WithLoadAddress(0x8ABC).
		WithInitAddress(0x9000).
		WithPlayAddress(0x9003).
		WithPlaySpeeds(16666, 20000).
		WithBankswitchInit([8]uint8{0, 1, 2, 3, 4, 5, 6, 7}).
		WithName("round trip").
		WithArtist("somebody").
		WithCopyright("1993 someone").
		Build()

	h, err := ParseHeader(original)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}

	encoded := h.Encode()
	if !bytes.Equal(encoded, original[:HeaderSize]) {
		t.Errorf("re-encoded header differs from original")
	}
}

func TestParseHeader_Fields(t *testing.T) {
	data := NewTuneBuilder().
		WithSongs(5, 2).
		WithLoadAddress(0x8123).
		WithInitAddress(0x8456).
		WithPlayAddress(0x8789).
		WithPlaySpeeds(16639, 19997).
		WithName("field test").
		WithArtist("an artist").
		WithCopyright("a copyright").
		Build()

	h, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}

	if h.TotalSongs != 5 {
		t.Errorf("TotalSongs = %d, want 5", h.TotalSongs)
	}
	if h.StartingSong != 2 {
		t.Errorf("StartingSong = %d, want 2 (0-based)", h.StartingSong)
	}
	if h.LoadAddress != 0x8123 {
		t.Errorf("LoadAddress = $%04X, want $8123", h.LoadAddress)
	}
	if h.InitAddress != 0x8456 {
		t.Errorf("InitAddress = $%04X, want $8456", h.InitAddress)
	}
	if h.PlayAddress != 0x8789 {
		t.Errorf("PlayAddress = $%04X, want $8789", h.PlayAddress)
	}
	if h.SongName() != "field test" {
		t.Errorf("SongName = %q", h.SongName())
	}
	if h.Artist() != "an artist" {
		t.Errorf("Artist = %q", h.Artist())
	}
	if h.Copyright() != "a copyright" {
		t.Errorf("Copyright = %q", h.Copyright())
	}
	if h.IsBankswitched() {
		t.Errorf("IsBankswitched = true for all-zero init banks")
	}
}

func TestParseHeader_BadMagic(t *testing.T) {
	data := NewTuneBuilder().Build()
	data[0] = 0x00

	if _, err := ParseHeader(data); !errors.Is(err, ErrBadMagic) {
		t.Errorf("ParseHeader = %v, want ErrBadMagic", err)
	}
}

func TestParseHeader_ShortHeader(t *testing.T) {
	data := NewTuneBuilder().Build()

	if _, err := ParseHeader(data[:64]); !errors.Is(err, ErrShortHeader) {
		t.Errorf("ParseHeader = %v, want ErrShortHeader", err)
	}
}

func TestTextField_Truncation(t *testing.T) {
	long := "0123456789012345678901234567890EXTRA" // more than 31 chars
	h, err := ParseHeader(NewTuneBuilder().WithName(long).Build())
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}

	if got := h.SongName(); len(got) > 31 {
		t.Errorf("SongName length = %d, want <= 31", len(got))
	}
	if got, want := h.SongName(), long[:31]; got != want {
		t.Errorf("SongName = %q, want %q", got, want)
	}
}

func TestRegion(t *testing.T) {
	tests := []struct {
		name  string
		flags uint8
		want  Region
	}{
		{"NTSC", 0x00, RegionNTSC},
		{"PAL", 0x01, RegionPAL},
		{"dual plays as NTSC", 0x03, RegionNTSC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseHeader(NewTuneBuilder().WithRegionFlags(tt.flags).Build())
			if err != nil {
				t.Fatalf("ParseHeader failed: %v", err)
			}
			if h.Region() != tt.want {
				t.Errorf("Region = %d, want %d", h.Region(), tt.want)
			}
		})
	}
}

func TestReservedBits_StillAccepted(t *testing.T) {
	h, err := ParseHeader(NewTuneBuilder().WithRegionFlags(0x04).Build())
	if err != nil {
		t.Fatalf("ParseHeader rejected reserved region bits: %v", err)
	}
	if !h.HasReservedBits() {
		t.Errorf("HasReservedBits = false, want true")
	}
}

func TestPlayPeriod(t *testing.T) {
	h, err := ParseHeader(NewTuneBuilder().WithPlaySpeeds(16666, 20000).Build())
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}

	if got := h.PlayPeriod(RegionNTSC); got != 16666*time.Microsecond {
		t.Errorf("NTSC period = %v", got)
	}
	if got := h.PlayPeriod(RegionPAL); got != 20000*time.Microsecond {
		t.Errorf("PAL period = %v", got)
	}

	// Zero speed falls back to the vblank rate.
	h2, err := ParseHeader(NewTuneBuilder().WithPlaySpeeds(0, 0).Build())
	if err != nil {
		t.Fatalf("ParseHeader failed: %v", err)
	}
	if got := h2.PlayPeriod(RegionNTSC); got == 0 {
		t.Errorf("zero NTSC speed produced zero period")
	}
}

func TestReadHeader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tune.nsf")
	builder := NewTuneBuilder().WithBody([]uint8{0xAA, 0xBB, 0xCC})
	if err := builder.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	if h.LoadAddress != 0x8000 {
		t.Errorf("LoadAddress = $%04X, want $8000", h.LoadAddress)
	}
}
