// Package player drives an open engine at the tune's play-speed
// cadence and streams the APU's rendered audio.
package player

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"github.com/cyberic99/nestronic/internal/apu"
	"github.com/cyberic99/nestronic/internal/engine"
)

// Options configure playback.
type Options struct {
	Song       int    // 0-based; -1 selects the header's starting song
	SampleRate int    // output PCM rate; 0 means 44100
	MaxFrames  uint64 // stop after this many ticks; 0 means forever
}

// Player glues the engine's tick loop to a beep.Streamer. Under Run the
// speaker pulls Stream from its own goroutine and drives the engine
// from there; RunSilent drives it from the caller's goroutine. The
// mutex protects the handful of fields the owning goroutine reads.
type Player struct {
	mu sync.Mutex

	engine *engine.Engine
	apu    *apu.APU

	samplesPerFrame int
	pending         []float32

	maxFrames uint64
	done      bool
	err       error
}

// New initializes the engine for the chosen song and prepares a player
// at the tune's cadence.
func New(eng *engine.Engine, opts Options) (*Player, error) {
	h := eng.Header()

	song := opts.Song
	if song < 0 {
		song = int(h.StartingSong)
	}

	rate := opts.SampleRate
	if rate <= 0 {
		rate = 44100
	}

	synth := apu.New()
	synth.SetSampleRate(rate)

	if err := eng.PlaybackInit(song, synth); err != nil {
		return nil, err
	}

	period := h.PlayPeriod(h.Region())
	samplesPerFrame := int(float64(rate) * period.Seconds())
	if samplesPerFrame < 1 {
		samplesPerFrame = 1
	}

	return &Player{
		engine:          eng,
		apu:             synth,
		samplesPerFrame: samplesPerFrame,
		maxFrames:       opts.MaxFrames,
	}, nil
}

// Stream fills the output buffer, advancing playback ticks as the
// pending samples run out. It satisfies beep.Streamer.
func (p *Player) Stream(samples [][2]float64) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for n < len(samples) {
		if len(p.pending) == 0 {
			if p.done || !p.advance() {
				break
			}
		}
		v := float64(p.pending[0])
		p.pending = p.pending[1:]
		samples[n][0] = v
		samples[n][1] = v
		n++
	}

	if n == 0 {
		return 0, false
	}
	return n, true
}

// advance runs one playback tick and renders its worth of samples.
func (p *Player) advance() bool {
	if p.maxFrames > 0 && p.engine.Frames() >= p.maxFrames {
		p.done = true
		return false
	}
	if err := p.engine.PlaybackFrame(); err != nil {
		p.err = err
		p.done = true
		return false
	}
	p.pending = p.apu.Render(p.samplesPerFrame)
	return true
}

// Err returns the first playback error, if any. It satisfies
// beep.Streamer.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Frames returns the number of completed playback ticks.
func (p *Player) Frames() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Frames()
}

// Run plays through the speaker until the player finishes or the stop
// channel closes.
func (p *Player) Run(stop <-chan struct{}) error {
	sr := beep.SampleRate(p.apu.SampleRate())
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return err
	}

	finished := make(chan struct{})
	speaker.Play(beep.Seq(p, beep.Callback(func() {
		close(finished)
	})))

	select {
	case <-finished:
	case <-stop:
		speaker.Lock()
		p.mu.Lock()
		p.done = true
		p.mu.Unlock()
		speaker.Unlock()
	}
	return p.Err()
}

// RunSilent advances playback at the tune's cadence without any audio
// backend, for automation and smoke testing.
func (p *Player) RunSilent(stop <-chan struct{}) error {
	period := p.engine.Header().PlayPeriod(p.engine.Header().Region())
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return p.Err()
		case <-ticker.C:
			p.mu.Lock()
			ok := !p.done && p.advance()
			p.pending = nil
			p.mu.Unlock()
			if !ok {
				return p.Err()
			}
		}
	}
}
