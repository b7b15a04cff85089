package studio

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kevsila/narrator/internal/audio"
	"github.com/kevsila/narrator/internal/quota"
	"github.com/kevsila/narrator/internal/synth/engine"
	"github.com/kevsila/narrator/internal/take"
	"github.com/kevsila/narrator/internal/voice"
)

type fakeEngine struct {
	err      error
	requests []engine.Request
}

func (f *fakeEngine) Synthesize(_ context.Context, req engine.Request) (audio.Decoded, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return audio.Decoded{}, f.err
	}
	return audio.Decoded{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		Samples:    make([]float32, audio.SampleRate/2),
	}, nil
}

func (f *fakeEngine) Close() error { return nil }

func newTestStudio(t *testing.T, eng engine.Engine, limits map[voice.Platform]int) (*Studio, *quota.Tracker) {
	t.Helper()
	store, err := quota.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if limits == nil {
		limits = map[voice.Platform]int{
			voice.PlatformGemini:     10,
			voice.PlatformElevenLabs: 10,
			voice.PlatformNotebookLM: 10,
		}
	}
	tracker := quota.NewTracker(context.Background(), store, limits)
	player := audio.NewPlayer(audio.NewNullDevice())
	books := voice.NewLoader("")
	return New(eng, tracker, player, books, nil), tracker
}

func TestNarrateProducesTake(t *testing.T) {
	ctx := context.Background()
	eng := &fakeEngine{}
	s, tracker := newTestStudio(t, eng, nil)

	tk, err := s.Narrate(ctx, NarrateParams{
		Text:    "# Chapter One\n\nIt begins.",
		VoiceID: "fenrir",
		Speed:   1.2,
		Style:   "Measured and deep.",
		Export:  take.ExportMeta{BookTitle: "Book", ChapterTitle: "One", Part: "1"},
	})
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}

	if tk.Audio == nil {
		t.Error("take has no audio")
	}
	if len(s.Takes()) != 1 {
		t.Errorf("library has %d takes, want 1", len(s.Takes()))
	}

	req := eng.requests[0]
	if req.NativeVoice != voice.NativeFenrir {
		t.Errorf("native voice = %q, want %q", req.NativeVoice, voice.NativeFenrir)
	}
	if !strings.Contains(req.Prompt, "Measured and deep.") {
		t.Error("prompt missing style description")
	}
	if !strings.Contains(req.Prompt, "1.20x") {
		t.Error("prompt missing reading speed")
	}

	if used := tracker.Snapshot().Quotas[voice.PlatformGemini].Used; used != 1 {
		t.Errorf("gemini used = %d, want 1", used)
	}
}

func TestNarrateBookDefaults(t *testing.T) {
	ctx := context.Background()
	eng := &fakeEngine{}
	s, _ := newTestStudio(t, eng, nil)

	tk, err := s.Narrate(ctx, NarrateParams{Text: "Text.", BookID: "firelit"})
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}

	// The firelit profile narrates with charon.
	if got := eng.requests[0].NativeVoice; got != voice.NativeCharon {
		t.Errorf("native voice = %q, want %q", got, voice.NativeCharon)
	}
	if tk.Export.BookTitle != "Firelit Wisdom" {
		t.Errorf("export book title = %q, want profile title", tk.Export.BookTitle)
	}
}

func TestNarrateValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStudio(t, &fakeEngine{}, nil)

	cases := []struct {
		name   string
		params NarrateParams
		want   error
	}{
		{"empty text", NarrateParams{Text: "   \n ", VoiceID: "zephyr"}, ErrEmptyManuscript},
		{"unknown voice", NarrateParams{Text: "x", VoiceID: "nobody"}, ErrUnknownVoice},
		{"unknown book", NarrateParams{Text: "x", BookID: "nobook"}, ErrUnknownBook},
		{"bad speed", NarrateParams{Text: "x", VoiceID: "zephyr", Speed: 1.3}, ErrInvalidSpeed},
	}
	for _, c := range cases {
		if _, err := s.Narrate(ctx, c.params); !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
}

func TestFailedSynthesisConsumesQuota(t *testing.T) {
	ctx := context.Background()
	eng := &fakeEngine{err: &engine.ProviderError{Status: 500, Message: "boom"}}
	s, tracker := newTestStudio(t, eng, nil)

	_, err := s.Narrate(ctx, NarrateParams{Text: "x", VoiceID: "zephyr"})
	if err == nil {
		t.Fatal("expected synthesis failure")
	}

	if used := tracker.Snapshot().Quotas[voice.PlatformGemini].Used; used != 1 {
		t.Errorf("used = %d, want 1 (no refund on failure)", used)
	}
	if len(s.Takes()) != 0 {
		t.Error("failed synthesis must not store a take")
	}
}

func TestRateLimitEngagesCooldown(t *testing.T) {
	ctx := context.Background()
	eng := &fakeEngine{err: &engine.ProviderError{Status: 429, Message: "slow down"}}
	s, tracker := newTestStudio(t, eng, nil)

	if _, err := s.Narrate(ctx, NarrateParams{Text: "x", VoiceID: "zephyr"}); err == nil {
		t.Fatal("expected rate-limit failure")
	}
	if !tracker.Cooling() {
		t.Fatal("cooldown not engaged after 429")
	}

	// All platforms are gated while cooling, even ones never used.
	eng.err = nil
	_, err := s.Narrate(ctx, NarrateParams{Text: "x", VoiceID: "adam"})
	if !errors.Is(err, quota.ErrCooldownActive) {
		t.Errorf("err = %v, want ErrCooldownActive", err)
	}
}

func TestQuotaExhaustionBlocksBeforeProvider(t *testing.T) {
	ctx := context.Background()
	eng := &fakeEngine{}
	s, _ := newTestStudio(t, eng, map[voice.Platform]int{
		voice.PlatformGemini:     1,
		voice.PlatformElevenLabs: 1,
		voice.PlatformNotebookLM: 1,
	})

	if _, err := s.Narrate(ctx, NarrateParams{Text: "x", VoiceID: "zephyr"}); err != nil {
		t.Fatalf("first narration: %v", err)
	}
	_, err := s.Narrate(ctx, NarrateParams{Text: "x", VoiceID: "zephyr"})
	if !errors.Is(err, quota.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}

	// No provider call was issued for the rejected request.
	if len(eng.requests) != 1 {
		t.Errorf("provider saw %d requests, want 1", len(eng.requests))
	}
}

func TestPreviewConsumesQuota(t *testing.T) {
	ctx := context.Background()
	eng := &fakeEngine{}
	s, tracker := newTestStudio(t, eng, nil)

	decoded, err := s.Preview(ctx, "adam")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if decoded.Duration() == 0 {
		t.Error("preview returned empty audio")
	}
	if used := tracker.Snapshot().Quotas[voice.PlatformElevenLabs].Used; used != 1 {
		t.Errorf("elevenlabs used = %d, want 1", used)
	}
	if len(s.Takes()) != 0 {
		t.Error("previews must not enter the take library")
	}
}

func TestPlayAndStop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStudio(t, &fakeEngine{}, nil)

	tk, err := s.Narrate(ctx, NarrateParams{Text: "x", VoiceID: "zephyr"})
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}

	if err := s.Play(ctx, tk.ID); err != nil {
		t.Fatalf("Play: %v", err)
	}
	s.StopPlayback(ctx)
	s.StopPlayback(ctx) // idle stop is a no-op

	if err := s.Play(ctx, "missing"); !errors.Is(err, ErrTakeNotFound) {
		t.Errorf("err = %v, want ErrTakeNotFound", err)
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStudio(t, &fakeEngine{}, nil)

	tk, err := s.Narrate(ctx, NarrateParams{
		Text:    "x",
		VoiceID: "zephyr",
		Export:  take.ExportMeta{BookTitle: "My Book", ChapterTitle: "Intro", Part: "1"},
	})
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}

	name, wav, err := s.Export(tk.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if name != "MY_BOOK_INTRO_1.wav" {
		t.Errorf("filename = %q", name)
	}
	if string(wav[0:4]) != "RIFF" {
		t.Error("export is not a WAV stream")
	}

	if _, _, err := s.Export("missing"); !errors.Is(err, ErrTakeNotFound) {
		t.Errorf("err = %v, want ErrTakeNotFound", err)
	}
}

func TestResetQuota(t *testing.T) {
	ctx := context.Background()
	s, tracker := newTestStudio(t, &fakeEngine{}, nil)

	if _, err := s.Narrate(ctx, NarrateParams{Text: "x", VoiceID: "zephyr"}); err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if err := s.ResetQuota(ctx); err != nil {
		t.Fatalf("ResetQuota: %v", err)
	}
	if used := tracker.Snapshot().Quotas[voice.PlatformGemini].Used; used != 0 {
		t.Errorf("used = %d after reset, want 0", used)
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{quota.ErrCooldownActive, "Narration is cooling down after a rate limit. Please wait a moment."},
		{quota.ErrQuotaExceeded, "Daily narration budget for this platform is spent."},
		{&engine.ProviderError{Status: 429}, "The narration service is rate limited. Synthesis is paused for a minute."},
		{engine.ErrNoAudio, "Synthesis failed: no usable audio was returned."},
		{audio.ErrMalformedPayload, "Synthesis failed: no usable audio was returned."},
		{ErrEmptyManuscript, "Paste some manuscript text before narrating."},
		{errors.New("dial tcp: timeout"), "Error synthesizing speech. Ensure your API key is valid."},
	}
	for _, c := range cases {
		if got := UserMessage(c.err); got != c.want {
			t.Errorf("UserMessage(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}
