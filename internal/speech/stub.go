package speech

import (
	"context"
	"math"
	"strings"
)

// MPEG-1 Layer III, 128 kbps, 44.1 kHz, mono, no CRC.
var silentFrameHeader = [4]byte{0xFF, 0xFB, 0x90, 0xC0}

const (
	mp3FrameSize       = 417
	mp3SamplesPerFrame = 1152
	mp3SampleRate      = 44100
	minStubFrames      = 3
)

// StubProvider returns silent MP3 audio sized to the spoken length of the
// text. It stands in for a real service when no API key is configured.
type StubProvider struct {
	wordsPerMinute float64
}

func NewStubProvider(wordsPerMinute float64) Provider {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	return &StubProvider{wordsPerMinute: wordsPerMinute}
}

func (s *StubProvider) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return generateSilentMP3(s.estimateDuration(text)), nil
}

func (s *StubProvider) estimateDuration(text string) float64 {
	wordCount := len(strings.Fields(text))
	return float64(wordCount) / s.wordsPerMinute * 60.0
}

func generateSilentMP3(durationSec float64) []byte {
	frameDuration := float64(mp3SamplesPerFrame) / mp3SampleRate
	frames := int(math.Ceil(durationSec / frameDuration))
	if frames < minStubFrames {
		frames = minStubFrames
	}

	buf := make([]byte, frames*mp3FrameSize)
	for i := 0; i < frames; i++ {
		copy(buf[i*mp3FrameSize:], silentFrameHeader[:])
	}
	return buf
}
