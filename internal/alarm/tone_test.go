package alarm

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeDefaultTone(t *testing.T) {
	pcm, err := Synthesize(DefaultTone, SampleRate)
	require.NoError(t, err)

	samples := SampleRate / 2
	require.Len(t, pcm, samples*2)

	limit := int(DefaultTone.Volume*math.MaxInt16) + 1
	peak := 0
	for i := 0; i < samples; i++ {
		v := int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	assert.LessOrEqual(t, peak, limit)
	assert.Greater(t, peak, limit/2, "tone should be audible")

	first := int16(binary.LittleEndian.Uint16(pcm[0:]))
	last := int16(binary.LittleEndian.Uint16(pcm[len(pcm)-2:]))
	assert.Zero(t, first, "fade-in starts from silence")
	assert.Zero(t, last, "fade-out ends in silence")
}

func TestSynthesizeRejectsBadTones(t *testing.T) {
	bad := []Tone{
		{Frequency: 0, Length: time.Second, Volume: 0.5},
		{Frequency: 30000, Length: time.Second, Volume: 0.5},
		{Frequency: 800, Length: 0, Volume: 0.5},
		{Frequency: 800, Length: time.Second, Volume: 0},
		{Frequency: 800, Length: time.Second, Volume: 1.5},
	}
	for _, tone := range bad {
		_, err := Synthesize(tone, SampleRate)
		assert.Error(t, err, "%+v", tone)
	}
}
