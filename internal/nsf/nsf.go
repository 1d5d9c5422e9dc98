// Package nsf implements parsing of NES Sound Format files.
package nsf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// HeaderSize is the fixed size of an NSF v1 header.
const HeaderSize = 128

// BodyOffset is the file offset where the tune's 6502 program begins.
const BodyOffset = 0x80

// Magic bytes at the start of every NSF file ("NESM" + 0x1A).
var Magic = [5]uint8{0x4E, 0x45, 0x53, 0x4D, 0x1A}

var (
	// ErrBadMagic is returned when the file does not start with the NSF magic.
	ErrBadMagic = errors.New("nsf: bad magic")

	// ErrShortHeader is returned when fewer than 128 header bytes are available.
	ErrShortHeader = errors.New("nsf: short header")
)

// Region identifies the TV system a tune should be played for.
type Region uint8

const (
	RegionNTSC Region = iota
	RegionPAL
)

// Region flag bits (offset 122).
const (
	regionFlagPAL      = 0x01
	regionFlagDual     = 0x02
	regionFlagReserved = 0xFC
)

// Extra sound chip flag bits (offset 123).
const (
	ChipVRC6 = 1 << iota
	ChipVRC7
	ChipFDS
	ChipMMC5
	ChipN163
	ChipS5B

	chipFlagReserved = 0xC0
)

// rawHeader mirrors the on-disk NSF v1 header layout byte for byte.
type rawHeader struct {
	Magic          [5]uint8
	Version        uint8
	TotalSongs     uint8
	StartingSong   uint8 // 1-based in the file
	LoadAddress    uint16
	InitAddress    uint16
	PlayAddress    uint16
	Name           [32]uint8
	Artist         [32]uint8
	Copyright      [32]uint8
	PlaySpeedNTSC  uint16 // 1/1000000 s units
	BankswitchInit [8]uint8
	PlaySpeedPAL   uint16
	RegionFlags    uint8
	ExtraChips     uint8
	Reserved       [4]uint8
}

// Header is the decoded NSF header.
type Header struct {
	Version        uint8
	TotalSongs     uint8
	StartingSong   uint8 // 0-based
	LoadAddress    uint16
	InitAddress    uint16
	PlayAddress    uint16
	PlaySpeedNTSC  uint16
	PlaySpeedPAL   uint16
	BankswitchInit [8]uint8
	RegionFlags    uint8
	ExtraChips     uint8

	name      [32]uint8
	artist    [32]uint8
	copyright [32]uint8
	reserved  [4]uint8
}

// ReadHeader opens the named file and parses its NSF header. The file
// handle is not retained.
func ReadHeader(path string) (*Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "nsf: open")
	}
	defer file.Close()

	buf := make([]uint8, HeaderSize)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, pkgerrors.Wrap(err, "nsf: read header")
	}
	return ParseHeader(buf[:n])
}

// ParseHeader decodes a 128-byte NSF header. The input is not retained.
func ParseHeader(data []uint8) (*Header, error) {
	if len(data) >= 5 && !bytes.Equal(data[:5], Magic[:]) {
		return nil, ErrBadMagic
	}
	if len(data) < HeaderSize {
		return nil, ErrShortHeader
	}

	var raw rawHeader
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &raw); err != nil {
		return nil, pkgerrors.Wrap(err, "nsf: decode header")
	}
	if raw.Magic != Magic {
		return nil, ErrBadMagic
	}

	h := &Header{
		Version:        raw.Version,
		TotalSongs:     raw.TotalSongs,
		LoadAddress:    raw.LoadAddress,
		InitAddress:    raw.InitAddress,
		PlayAddress:    raw.PlayAddress,
		PlaySpeedNTSC:  raw.PlaySpeedNTSC,
		PlaySpeedPAL:   raw.PlaySpeedPAL,
		BankswitchInit: raw.BankswitchInit,
		RegionFlags:    raw.RegionFlags,
		ExtraChips:     raw.ExtraChips,
		name:           raw.Name,
		artist:         raw.Artist,
		copyright:      raw.Copyright,
		reserved:       raw.Reserved,
	}

	// The file stores the starting song 1-based.
	if raw.StartingSong > 0 {
		h.StartingSong = raw.StartingSong - 1
	}

	return h, nil
}

// Encode re-encodes the header into its 128-byte on-disk form.
func (h *Header) Encode() []uint8 {
	raw := rawHeader{
		Magic:          Magic,
		Version:        h.Version,
		TotalSongs:     h.TotalSongs,
		StartingSong:   h.StartingSong + 1,
		LoadAddress:    h.LoadAddress,
		InitAddress:    h.InitAddress,
		PlayAddress:    h.PlayAddress,
		Name:           h.name,
		Artist:         h.artist,
		Copyright:      h.copyright,
		PlaySpeedNTSC:  h.PlaySpeedNTSC,
		BankswitchInit: h.BankswitchInit,
		PlaySpeedPAL:   h.PlaySpeedPAL,
		RegionFlags:    h.RegionFlags,
		ExtraChips:     h.ExtraChips,
		Reserved:       h.reserved,
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &raw)
	return buf.Bytes()
}

// textField truncates a NUL-padded field to at most 31 characters.
func textField(field [32]uint8) string {
	// Force a terminator in the last position, matching the 31+NUL layout.
	end := len(field) - 1
	for i := 0; i < end; i++ {
		if field[i] == 0 {
			end = i
			break
		}
	}
	return string(field[:end])
}

// SongName returns the tune's name field.
func (h *Header) SongName() string { return textField(h.name) }

// Artist returns the tune's artist field.
func (h *Header) Artist() string { return textField(h.artist) }

// Copyright returns the tune's copyright field.
func (h *Header) Copyright() string { return textField(h.copyright) }

// IsBankswitched reports whether the tune uses mapper registers; any
// non-zero initial bank value means the body is addressed in 4KB banks.
func (h *Header) IsBankswitched() bool {
	for _, b := range h.BankswitchInit {
		if b != 0 {
			return true
		}
	}
	return false
}

// Region returns the region the tune should be driven at. Dual-region
// files play as NTSC.
func (h *Header) Region() Region {
	if h.RegionFlags&regionFlagPAL != 0 && h.RegionFlags&regionFlagDual == 0 {
		return RegionPAL
	}
	return RegionNTSC
}

// HasReservedBits reports whether reserved region or chip flag bits are
// set. Such headers are still accepted; callers may want to warn.
func (h *Header) HasReservedBits() bool {
	return h.RegionFlags&regionFlagReserved != 0 || h.ExtraChips&chipFlagReserved != 0
}

// UsesExtraChips reports whether the header requests any expansion
// audio chip. Expansion registers are not emulated.
func (h *Header) UsesExtraChips() bool {
	return h.ExtraChips&^uint8(chipFlagReserved) != 0
}

// PlayPeriod returns the interval between PLAY calls for the region.
// A zero play-speed field falls back to the region's vblank rate.
func (h *Header) PlayPeriod(region Region) time.Duration {
	var speed uint16
	if region == RegionPAL {
		speed = h.PlaySpeedPAL
	} else {
		speed = h.PlaySpeedNTSC
	}
	if speed == 0 {
		if region == RegionPAL {
			speed = 19997 // ~50.007 Hz
		} else {
			speed = 16639 // ~60.099 Hz
		}
	}
	return time.Duration(speed) * time.Microsecond
}
