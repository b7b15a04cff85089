package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/kevsila/narrator/internal/audio"
)

// Request carries one provider-level synthesis call. Prompt is the fully
// built instruction string; NativeVoice is an engine-level voice identifier
// the provider actually accepts.
type Request struct {
	Prompt      string
	NativeVoice string
}

// Engine issues synthesis requests against a hosted speech provider and
// decodes the response into sample-accurate audio.
type Engine interface {
	Synthesize(ctx context.Context, req Request) (audio.Decoded, error)
	Close() error
}

// ErrNoAudio indicates the provider responded but carried no audio payload.
// Treated as a hard failure; never retried automatically.
var ErrNoAudio = errors.New("no audio payload in provider response")

// ProviderError is a transport, auth, or rate-limit failure surfaced by the
// provider. Callers classify rate limits via RateLimited and engage the
// global cooldown.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

// RateLimited reports whether this failure is a rate-limit signal, either
// transport-level 429 or an explicit quota exhaustion from the provider.
func (e *ProviderError) RateLimited() bool {
	return e.Status == 429
}

// IsRateLimited reports whether err carries a rate-limit signal.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.RateLimited()
}
