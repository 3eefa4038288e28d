package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	DefaultWordsPerMinute = 150.0

	// Encoding is the only container produced by providers.
	Encoding = "audio/mpeg"
	// MinAudioBytes is the smallest payload accepted as real audio.
	MinAudioBytes = 1024

	assumedBitrate = 128000.0
)

var ErrAudioTooSmall = errors.New("audio payload too small")

// Provider turns text into MP3 bytes. language is a BCP 47 tag such as "en".
type Provider interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

type envelope struct {
	Audio       *string `json:"audio"`
	AudioBase64 *string `json:"audio_base64"`
}

// Decode accepts either a raw audio body or a JSON envelope carrying the
// audio as a string field. Base64 strings are decoded; anything else is
// taken as the payload itself.
func Decode(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return body, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("parse audio envelope: %w", err)
	}

	var field *string
	switch {
	case env.AudioBase64 != nil:
		field = env.AudioBase64
	case env.Audio != nil:
		field = env.Audio
	default:
		return nil, fmt.Errorf("audio envelope has no audio field")
	}

	if decoded, err := base64.StdEncoding.DecodeString(*field); err == nil {
		return decoded, nil
	}
	return []byte(*field), nil
}

// Validate rejects payloads too small to hold playable audio.
func Validate(audio []byte) error {
	if len(audio) < MinAudioBytes {
		return fmt.Errorf("%w: %d bytes, want at least %d", ErrAudioTooSmall, len(audio), MinAudioBytes)
	}
	return nil
}

// EstimateAudioDuration returns seconds of audio assuming a 128 kbps MP3.
func EstimateAudioDuration(audio []byte) float64 {
	return float64(len(audio)*8) / assumedBitrate
}
