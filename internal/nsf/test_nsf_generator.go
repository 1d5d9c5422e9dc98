package nsf

// Utilities for generating minimal NSF files for tests and tooling.

import (
	"os"
)

// TuneBuilder provides a fluent interface for building synthetic NSF
// files.
type TuneBuilder struct {
	header Header
	body   []uint8
}

// NewTuneBuilder creates a builder with a one-song tune loading at
// $8000.
func NewTuneBuilder() *TuneBuilder {
	b := &TuneBuilder{
		header: Header{
			Version:     1,
			TotalSongs:  1,
			LoadAddress: 0x8000,
			InitAddress: 0x8000,
			PlayAddress: 0x8000,
		},
	}
	b.WithName("test tune")
	b.WithArtist("nestronic")
	b.WithCopyright("none")
	return b
}

// WithSongs sets the song count and 0-based starting song.
func (b *TuneBuilder) WithSongs(total, starting uint8) *TuneBuilder {
	b.header.TotalSongs = total
	b.header.StartingSong = starting
	return b
}

// WithLoadAddress sets the body's load address.
func (b *TuneBuilder) WithLoadAddress(address uint16) *TuneBuilder {
	b.header.LoadAddress = address
	return b
}

// WithInitAddress sets the INIT routine address.
func (b *TuneBuilder) WithInitAddress(address uint16) *TuneBuilder {
	b.header.InitAddress = address
	return b
}

// WithPlayAddress sets the PLAY routine address.
func (b *TuneBuilder) WithPlayAddress(address uint16) *TuneBuilder {
	b.header.PlayAddress = address
	return b
}

// WithBankswitchInit sets the eight initial bank registers.
func (b *TuneBuilder) WithBankswitchInit(banks [8]uint8) *TuneBuilder {
	b.header.BankswitchInit = banks
	return b
}

// WithRegionFlags sets the PAL/NTSC flag byte.
func (b *TuneBuilder) WithRegionFlags(flags uint8) *TuneBuilder {
	b.header.RegionFlags = flags
	return b
}

// WithPlaySpeeds sets the NTSC and PAL play speeds in microseconds.
func (b *TuneBuilder) WithPlaySpeeds(ntsc, pal uint16) *TuneBuilder {
	b.header.PlaySpeedNTSC = ntsc
	b.header.PlaySpeedPAL = pal
	return b
}

// WithBody sets the raw 6502 program placed at the body offset.
func (b *TuneBuilder) WithBody(body []uint8) *TuneBuilder {
	b.body = body
	return b
}

// WithName sets the name text field.
func (b *TuneBuilder) WithName(name string) *TuneBuilder {
	b.header.name = textBytes(name)
	return b
}

// WithArtist sets the artist text field.
func (b *TuneBuilder) WithArtist(artist string) *TuneBuilder {
	b.header.artist = textBytes(artist)
	return b
}

// WithCopyright sets the copyright text field.
func (b *TuneBuilder) WithCopyright(copyright string) *TuneBuilder {
	b.header.copyright = textBytes(copyright)
	return b
}

func textBytes(s string) [32]uint8 {
	var field [32]uint8
	copy(field[:31], s)
	return field
}

// Header returns a copy of the header being built.
func (b *TuneBuilder) Header() Header {
	return b.header
}

// Build returns the complete file image: 128-byte header plus body.
func (b *TuneBuilder) Build() []uint8 {
	return append(b.header.Encode(), b.body...)
}

// WriteFile writes the file image to path.
func (b *TuneBuilder) WriteFile(path string) error {
	return os.WriteFile(path, b.Build(), 0o644)
}
