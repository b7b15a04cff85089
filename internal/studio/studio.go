// Package studio orchestrates the narration pipeline: quota authorization,
// prompt construction, synthesis, the take library, playback, and export.
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pitabwire/util"

	"github.com/kevsila/narrator/internal/audio"
	"github.com/kevsila/narrator/internal/prompt"
	"github.com/kevsila/narrator/internal/quota"
	"github.com/kevsila/narrator/internal/synth/engine"
	"github.com/kevsila/narrator/internal/take"
	"github.com/kevsila/narrator/internal/voice"
	"github.com/kevsila/narrator/pkg/events"
)

var (
	ErrEmptyManuscript = errors.New("manuscript text is empty")
	ErrUnknownVoice    = errors.New("unknown voice")
	ErrUnknownBook     = errors.New("unknown book profile")
	ErrInvalidSpeed    = errors.New("speed not in supported set")
	ErrTakeNotFound    = errors.New("take not found")
)

// speedSet is the enumerated set of supported reading speeds.
var speedSet = map[float64]bool{0.8: true, 0.95: true, 1.0: true, 1.2: true, 1.5: true}

// NarrateParams describes one narration request. Voice, speed, and style
// fall back to the book profile's defaults when omitted.
type NarrateParams struct {
	Text    string
	VoiceID string
	Speed   float64
	Style   string
	BookID  string
	Export  take.ExportMeta
}

// Studio is the synthesis orchestration facade. One authorized provider
// call per user action and no request queue; rapid repeated actions may
// run concurrent calls, each consuming quota.
type Studio struct {
	eng     engine.Engine
	tracker *quota.Tracker
	player  *audio.Player
	library *take.Library
	books   *voice.Loader
	pub     *events.Publisher
}

// New wires a studio from its collaborators.
func New(eng engine.Engine, tracker *quota.Tracker, player *audio.Player, books *voice.Loader, pub *events.Publisher) *Studio {
	return &Studio{
		eng:     eng,
		tracker: tracker,
		player:  player,
		library: take.NewLibrary(),
		books:   books,
		pub:     pub,
	}
}

// resolve fills params from the book profile and validates voice and speed.
func (s *Studio) resolve(p *NarrateParams) (voice.Profile, error) {
	if p.BookID != "" {
		book, ok := s.books.Get(p.BookID)
		if !ok {
			return voice.Profile{}, fmt.Errorf("%w: %q", ErrUnknownBook, p.BookID)
		}
		if p.VoiceID == "" {
			p.VoiceID = book.DefaultVoice
		}
		if p.Style == "" {
			p.Style = book.NarrationStyle
		}
		if p.Export.BookTitle == "" {
			p.Export.BookTitle = book.Title
		}
	}

	vp, ok := voice.Lookup(p.VoiceID)
	if !ok {
		return voice.Profile{}, fmt.Errorf("%w: %q", ErrUnknownVoice, p.VoiceID)
	}

	if p.Speed == 0 {
		p.Speed = 1.0
	}
	if !speedSet[p.Speed] {
		return voice.Profile{}, fmt.Errorf("%w: %.2f", ErrInvalidSpeed, p.Speed)
	}
	return vp, nil
}

// Narrate authorizes, synthesizes, and stores one manuscript take. The
// quota unit is consumed when the call is authorized; a failed provider
// call does not refund it.
func (s *Studio) Narrate(ctx context.Context, p NarrateParams) (*take.Take, error) {
	if strings.TrimSpace(p.Text) == "" {
		return nil, ErrEmptyManuscript
	}
	vp, err := s.resolve(&p)
	if err != nil {
		return nil, err
	}

	if err := s.tracker.CheckAndReserve(ctx, vp.Platform); err != nil {
		return nil, err
	}

	decoded, err := s.eng.Synthesize(ctx, engine.Request{
		Prompt:      prompt.BuildNarration(p.Text, p.Style, p.Speed),
		NativeVoice: vp.Native,
	})
	if err != nil {
		return nil, s.synthesisFailed(ctx, vp, err)
	}

	t := take.New(p.Text, decoded, p.Export)
	s.library.Add(t)
	s.emit(ctx, events.TakeCreated, events.TakeData{
		TakeID:          t.ID,
		Platform:        string(vp.Platform),
		Voice:           vp.ID,
		DurationSeconds: t.DurationSeconds,
	})
	return t, nil
}

// Preview auditions a voice with its fixed introductory sentence and plays
// the result. Consumes one unit of the voice's platform quota, exactly like
// a full synthesis call.
func (s *Studio) Preview(ctx context.Context, voiceID string) (audio.Decoded, error) {
	vp, ok := voice.Lookup(voiceID)
	if !ok {
		return audio.Decoded{}, fmt.Errorf("%w: %q", ErrUnknownVoice, voiceID)
	}

	if err := s.tracker.CheckAndReserve(ctx, vp.Platform); err != nil {
		return audio.Decoded{}, err
	}

	decoded, err := s.eng.Synthesize(ctx, engine.Request{
		Prompt:      prompt.BuildPreview(voice.PreviewLine(voiceID)),
		NativeVoice: vp.Native,
	})
	if err != nil {
		return audio.Decoded{}, s.synthesisFailed(ctx, vp, err)
	}

	if err := s.player.Play(decoded); err != nil {
		util.Log(ctx).WithError(err).Warn("studio: preview playback")
	} else {
		s.emit(ctx, events.PlaybackStarted, events.PlaybackData{})
	}
	return decoded, nil
}

// synthesisFailed interprets a provider failure: rate-limit signals engage
// the global cooldown, everything else passes through.
func (s *Studio) synthesisFailed(ctx context.Context, vp voice.Profile, err error) error {
	if engine.IsRateLimited(err) {
		s.tracker.RecordRateLimit()
		s.emit(ctx, events.CooldownStarted, events.CooldownStartedData{
			Seconds: s.tracker.RemainingSeconds(),
		})
	}
	s.emit(ctx, events.SynthesisFailed, events.SynthesisFailedData{
		Platform: string(vp.Platform),
		Voice:    vp.ID,
		Reason:   err.Error(),
	})
	return err
}

// Play starts playback of a stored take, replacing any active playback.
func (s *Studio) Play(ctx context.Context, takeID string) error {
	t, ok := s.library.Get(takeID)
	if !ok || t.Audio == nil {
		return fmt.Errorf("%w: %q", ErrTakeNotFound, takeID)
	}
	if err := s.player.Play(*t.Audio); err != nil {
		return err
	}
	s.emit(ctx, events.PlaybackStarted, events.PlaybackData{TakeID: takeID})
	return nil
}

// StopPlayback halts the active playback; a no-op when nothing plays.
func (s *Studio) StopPlayback(ctx context.Context) {
	s.player.Stop()
	s.emit(ctx, events.PlaybackStopped, events.PlaybackData{})
}

// Export serializes a take's audio into a WAV byte stream with its
// download file name.
func (s *Studio) Export(takeID string) (string, []byte, error) {
	t, ok := s.library.Get(takeID)
	if !ok || t.Audio == nil {
		return "", nil, fmt.Errorf("%w: %q", ErrTakeNotFound, takeID)
	}
	return t.Export.Filename(), audio.EncodeWAV(*t.Audio), nil
}

// RemoveTake deletes a take from the library.
func (s *Studio) RemoveTake(ctx context.Context, takeID string) error {
	if !s.library.Remove(takeID) {
		return fmt.Errorf("%w: %q", ErrTakeNotFound, takeID)
	}
	s.emit(ctx, events.TakeRemoved, events.TakeData{TakeID: takeID})
	return nil
}

// Takes returns the take list, most recent first.
func (s *Studio) Takes() []*take.Take {
	return s.library.List()
}

// Books returns the available book profiles.
func (s *Studio) Books() []voice.BookProfile {
	return s.books.All()
}

// Usage returns the current quota snapshot.
func (s *Studio) Usage() quota.UsageState {
	return s.tracker.Snapshot()
}

// CooldownSeconds returns the remaining global cooldown, zero when idle.
func (s *Studio) CooldownSeconds() int {
	return s.tracker.RemainingSeconds()
}

// ResetQuota zeroes all platform counters immediately.
func (s *Studio) ResetQuota(ctx context.Context) error {
	if err := s.tracker.Reset(ctx); err != nil {
		return err
	}
	s.emit(ctx, events.QuotaReset, nil)
	return nil
}

func (s *Studio) emit(ctx context.Context, et events.EventType, data interface{}) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Emit(ctx, et, data); err != nil {
		util.Log(ctx).WithError(err).Warn("studio: emit event")
	}
}

// UserMessage converts a pipeline failure into the stable user-facing
// message shown by clients. Rate limits get a distinct, time-bound message
// rather than a terminal error.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, quota.ErrCooldownActive):
		return "Narration is cooling down after a rate limit. Please wait a moment."
	case errors.Is(err, quota.ErrQuotaExceeded):
		return "Daily narration budget for this platform is spent."
	case engine.IsRateLimited(err):
		return "The narration service is rate limited. Synthesis is paused for a minute."
	case errors.Is(err, engine.ErrNoAudio), errors.Is(err, audio.ErrMalformedPayload):
		return "Synthesis failed: no usable audio was returned."
	case errors.Is(err, ErrEmptyManuscript):
		return "Paste some manuscript text before narrating."
	case errors.Is(err, ErrUnknownVoice), errors.Is(err, ErrUnknownBook), errors.Is(err, ErrInvalidSpeed):
		return "Invalid narration settings."
	case errors.Is(err, ErrTakeNotFound):
		return "That take no longer exists."
	default:
		return "Error synthesizing speech. Ensure your API key is valid."
	}
}
