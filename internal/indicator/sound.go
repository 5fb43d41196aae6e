package indicator

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/rbright/scriber/internal/config"
)

const (
	cueSampleRate = 16000
	toneGap       = 22 * time.Millisecond
	// toneRamp caps the fade in and out of each tone.
	toneRamp = 5 * time.Millisecond
)

type tone struct {
	hz     float64
	length time.Duration
	gain   float64
}

// cue is a short audio signal for an upload outcome. A configured sound file
// wins; otherwise the cue's tones are synthesized and played through pulse.
type cue struct {
	name  string
	file  func(config.IndicatorConfig) string
	tones []tone
	pcm   func() []int16
}

func newCue(name string, file func(config.IndicatorConfig) string, tones ...tone) *cue {
	c := &cue{name: name, file: file, tones: tones}
	c.pcm = sync.OnceValue(func() []int16 { return renderTones(c.tones) })
	return c
}

var (
	completeCue = newCue("complete",
		func(cfg config.IndicatorConfig) string { return cfg.SoundCompleteFile },
		tone{hz: 660, length: 60 * time.Millisecond, gain: 0.18},
		tone{hz: 880, length: 60 * time.Millisecond, gain: 0.18},
		tone{hz: 1320, length: 110 * time.Millisecond, gain: 0.16},
	)
	cancelCue = newCue("cancel",
		func(cfg config.IndicatorConfig) string { return cfg.SoundCancelFile },
		tone{hz: 480, length: 75 * time.Millisecond, gain: 0.18},
		tone{hz: 360, length: 90 * time.Millisecond, gain: 0.18},
	)
)

func (c *cue) play(cfg config.IndicatorConfig) error {
	if path := strings.TrimSpace(c.file(cfg)); path != "" {
		if err := playCueFile(path); err == nil {
			return nil
		}
	}
	samples := c.pcm()
	if len(samples) == 0 {
		return nil
	}
	return playPCM("scriber "+c.name+" cue", samples)
}

func playCueFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path).Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

// pcmSource feeds a fixed sample buffer to a pulse playback stream.
type pcmSource struct {
	samples []int16
	pos     int
}

func (s *pcmSource) read(buf []int16) (int, error) {
	if s.pos >= len(s.samples) {
		return 0, pulse.EndOfData
	}
	n := copy(buf, s.samples[s.pos:])
	s.pos += n
	if s.pos >= len(s.samples) {
		return n, pulse.EndOfData
	}
	return n, nil
}

func playPCM(mediaName string, samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("scriber"),
		pulse.ClientApplicationIconName(notificationIcon),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	src := &pcmSource{samples: samples}
	stream, err := client.NewPlayback(
		pulse.Int16Reader(src.read),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName(mediaName),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play %s: %w", mediaName, err)
	}
	return nil
}

// renderTones concatenates tones separated by short silences.
func renderTones(tones []tone) []int16 {
	gap := sampleCount(toneGap)
	var pcm []int16
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, make([]int16, gap)...)
		}
		pcm = append(pcm, t.render()...)
	}
	return pcm
}

func (t tone) render() []int16 {
	n := sampleCount(t.length)
	if n <= 0 || t.hz <= 0 || t.gain <= 0 {
		return nil
	}
	ramp := min(max(n/10, 1), sampleCount(toneRamp))

	pcm := make([]int16, n)
	step := 2 * math.Pi * t.hz / cueSampleRate
	for i := range pcm {
		amplitude := t.gain * envelope(i, n, ramp) * math.MaxInt16
		pcm[i] = int16(math.Round(math.Sin(step*float64(i)) * amplitude))
	}
	return pcm
}

// envelope is a linear fade-in/fade-out over ramp samples at each edge.
func envelope(i, n, ramp int) float64 {
	return math.Min(1, math.Min(float64(i), float64(n-1-i))/float64(ramp))
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
