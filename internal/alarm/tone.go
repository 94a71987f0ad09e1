package alarm

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/napflow/internal/domain"
	"github.com/hammamikhairi/napflow/internal/logger"
)

// Compile-time interface check.
var _ domain.Sounder = (*TonePlayer)(nil)

// Audio parameters for the synthesized alarm tone.
const (
	SampleRate   = 44100
	ChannelCount = 1
	BitDepth     = 16
)

// fadeDuration softens the start and end of the tone to avoid clicks.
const fadeDuration = 5 * time.Millisecond

// Tone describes the alarm beep.
type Tone struct {
	Frequency float64       // Hz
	Length    time.Duration // length of one beep
	Volume    float64       // 0..1
}

// DefaultTone is a half-second 800 Hz beep at half volume.
var DefaultTone = Tone{Frequency: 800, Length: 500 * time.Millisecond, Volume: 0.5}

// TonePlayer plays a synthesized beep via oto. Play returns as soon as
// playback has started; a new Play cuts off the previous beep.
type TonePlayer struct {
	ctx    *oto.Context
	log    *logger.Logger
	pcm    []byte
	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// NewTonePlayer initializes the system audio context and renders the tone.
// Returns an error if the tone is invalid or no audio device is available.
func NewTonePlayer(tone Tone, log *logger.Logger) (*TonePlayer, error) {
	pcm, err := Synthesize(tone, SampleRate)
	if err != nil {
		return nil, err
	}

	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("initializing audio: %w", err)
	}
	<-readyChan

	log.Debug("tone player initialized (rate=%d, freq=%.0fHz, length=%s)", SampleRate, tone.Frequency, tone.Length)
	return &TonePlayer{ctx: ctx, log: log, pcm: pcm}, nil
}

// Play starts one beep.
func (p *TonePlayer) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	player := p.ctx.NewPlayer(bytes.NewReader(p.pcm))
	player.Play()
	p.active = player

	p.log.Debug("tone player: playing %d bytes of PCM", len(p.pcm))
	return nil
}

// Stop interrupts the current beep, if any. Safe to call concurrently and
// when nothing is playing.
func (p *TonePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *TonePlayer) stopLocked() {
	if p.active == nil {
		return
	}
	p.active.Pause()
	if err := p.active.Close(); err != nil {
		p.log.Debug("tone player: closing player: %v", err)
	}
	p.active = nil
}

// Validate checks that the tone can be rendered at sampleRate.
func (t Tone) Validate(sampleRate int) error {
	if t.Frequency <= 0 || t.Frequency >= float64(sampleRate)/2 {
		return fmt.Errorf("tone frequency %.1fHz out of range", t.Frequency)
	}
	if t.Length <= 0 {
		return fmt.Errorf("tone length must be positive, got %s", t.Length)
	}
	if t.Volume <= 0 || t.Volume > 1 {
		return fmt.Errorf("tone volume must be in (0, 1], got %.2f", t.Volume)
	}
	return nil
}

// Synthesize renders a tone as mono signed 16-bit little-endian PCM.
func Synthesize(tone Tone, sampleRate int) ([]byte, error) {
	if err := tone.Validate(sampleRate); err != nil {
		return nil, err
	}

	samples := int(tone.Length.Seconds() * float64(sampleRate))
	fade := int(fadeDuration.Seconds() * float64(sampleRate))
	if fade*2 > samples {
		fade = samples / 2
	}

	buf := make([]byte, samples*BitDepth/8)
	for i := 0; i < samples; i++ {
		env := 1.0
		switch {
		case i < fade:
			env = float64(i) / float64(fade)
		case i >= samples-fade:
			env = float64(samples-1-i) / float64(fade)
		}
		v := math.Sin(2*math.Pi*tone.Frequency*float64(i)/float64(sampleRate)) * tone.Volume * env
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(v*math.MaxInt16)))
	}
	return buf, nil
}
