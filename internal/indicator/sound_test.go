package indicator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/rbright/scriber/internal/config"
	"github.com/stretchr/testify/require"
)

func TestCuesRenderSamples(t *testing.T) {
	require.NotEmpty(t, completeCue.pcm())
	require.NotEmpty(t, cancelCue.pcm())
}

func TestCueFilesComeFromConfig(t *testing.T) {
	cfg := config.IndicatorConfig{
		SoundCompleteFile: "/home/u/sounds/done.wav",
		SoundCancelFile:   "/tmp/cancel.wav",
	}
	require.Equal(t, "/home/u/sounds/done.wav", completeCue.file(cfg))
	require.Equal(t, "/tmp/cancel.wav", cancelCue.file(cfg))
}

func TestPlayCueFileMissing(t *testing.T) {
	err := playCueFile(filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "stat cue file")
}

func TestRenderTonesIncludesGaps(t *testing.T) {
	tones := []tone{
		{hz: 440, length: 50 * time.Millisecond, gain: 0.2},
		{hz: 660, length: 50 * time.Millisecond, gain: 0.2},
	}
	got := renderTones(tones)
	require.Len(t, got, 2*sampleCount(50*time.Millisecond)+sampleCount(toneGap))
	require.Empty(t, renderTones(nil))
}

func TestToneRenderFadesAtEdges(t *testing.T) {
	pcm := tone{hz: 440, length: 100 * time.Millisecond, gain: 0.2}.render()
	require.Len(t, pcm, sampleCount(100*time.Millisecond))
	require.Zero(t, pcm[0])
	require.Zero(t, pcm[len(pcm)-1])
}

func TestToneRenderInvalidReturnsEmpty(t *testing.T) {
	require.Empty(t, tone{hz: 0, length: 100 * time.Millisecond, gain: 0.2}.render())
	require.Empty(t, tone{hz: 440, length: 0, gain: 0.2}.render())
	require.Empty(t, tone{hz: 440, length: 100 * time.Millisecond, gain: 0}.render())
}

func TestEnvelope(t *testing.T) {
	require.Zero(t, envelope(0, 100, 10))
	require.InDelta(t, 0.5, envelope(5, 100, 10), 1e-9)
	require.Equal(t, 1.0, envelope(50, 100, 10))
	require.Zero(t, envelope(99, 100, 10))
}

func TestPCMSourceDrainsThenEnds(t *testing.T) {
	src := &pcmSource{samples: []int16{1, 2, 3, 4, 5}}
	buf := make([]int16, 3)

	n, err := src.read(buf)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = src.read(buf)
	require.ErrorIs(t, err, pulse.EndOfData)
	require.Equal(t, 2, n)
	require.Equal(t, []int16{4, 5}, buf[:n])

	n, err = src.read(buf)
	require.ErrorIs(t, err, pulse.EndOfData)
	require.Zero(t, n)
}
