// Package audio holds the decoded audio model, PCM payload decoding, the
// WAV serializer, and the single-slot playback manager.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// The synthesis provider returns single-channel PCM at 24 kHz.
const (
	SampleRate = 24000
	Channels   = 1
)

// ErrMalformedPayload indicates an audio payload that could not be decoded
// into sample-accurate PCM. The call fails rather than truncating output.
var ErrMalformedPayload = errors.New("malformed audio payload")

// Decoded is sample-accurate floating-point audio. Each Decoded value is
// owned by the take or playback call that created it; it is never shared
// across takes.
type Decoded struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Duration returns the playback length in seconds.
func (d Decoded) Duration() float64 {
	if d.SampleRate == 0 || d.Channels == 0 {
		return 0
	}
	return float64(len(d.Samples)) / float64(d.SampleRate*d.Channels)
}

// DecodePCM16 reconstructs floating-point audio from a base64-encoded
// little-endian 16-bit PCM stream at the provider's fixed rate. Empty or
// odd-length payloads fail the call.
func DecodePCM16(b64 string) (Decoded, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: base64: %v", ErrMalformedPayload, err)
	}
	if len(raw) == 0 {
		return Decoded{}, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	if len(raw)%2 != 0 {
		return Decoded{}, fmt.Errorf("%w: truncated sample (%d bytes)", ErrMalformedPayload, len(raw))
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(s) / 32768.0
	}

	return Decoded{SampleRate: SampleRate, Channels: Channels, Samples: samples}, nil
}
