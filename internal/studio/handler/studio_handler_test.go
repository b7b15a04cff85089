package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kevsila/narrator/internal/audio"
	"github.com/kevsila/narrator/internal/quota"
	"github.com/kevsila/narrator/internal/studio"
	"github.com/kevsila/narrator/internal/synth/engine"
	"github.com/kevsila/narrator/internal/voice"
)

type stubEngine struct {
	err error
}

func (s *stubEngine) Synthesize(_ context.Context, _ engine.Request) (audio.Decoded, error) {
	if s.err != nil {
		return audio.Decoded{}, s.err
	}
	return audio.Decoded{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
		Samples:    make([]float32, audio.SampleRate),
	}, nil
}

func (s *stubEngine) Close() error { return nil }

func newTestServer(t *testing.T, eng engine.Engine) *httptest.Server {
	t.Helper()
	store, err := quota.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	tracker := quota.NewTracker(context.Background(), store, map[voice.Platform]int{
		voice.PlatformGemini:     5,
		voice.PlatformElevenLabs: 5,
		voice.PlatformNotebookLM: 5,
	})
	player := audio.NewPlayer(audio.NewNullDevice())
	books := voice.NewLoader("")
	st := studio.New(eng, tracker, player, books, nil)

	mux := http.NewServeMux()
	NewStudioHandler(st).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestNarrateEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubEngine{})

	resp := postJSON(t, srv.URL+"/v1/takes", map[string]any{
		"text":  "# Title\n\nHello.",
		"voice": "zephyr",
		"speed": 1.0,
		"export": map[string]string{
			"book_title":    "Book",
			"chapter_title": "One",
			"part":          "1",
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var tk struct {
		ID              string  `json:"id"`
		DurationSeconds float64 `json:"duration_seconds"`
	}
	decodeBody(t, resp, &tk)
	if tk.ID == "" {
		t.Error("response has no take ID")
	}
	if tk.DurationSeconds != 1.0 {
		t.Errorf("duration = %v, want 1.0", tk.DurationSeconds)
	}

	// The take shows up in the list.
	listResp, err := http.Get(srv.URL + "/v1/takes")
	if err != nil {
		t.Fatalf("GET takes: %v", err)
	}
	var list struct {
		Takes []struct {
			ID string `json:"id"`
		} `json:"takes"`
	}
	decodeBody(t, listResp, &list)
	if len(list.Takes) != 1 || list.Takes[0].ID != tk.ID {
		t.Errorf("take list = %+v, want the created take", list.Takes)
	}
}

func TestNarrateValidationStatus(t *testing.T) {
	srv := newTestServer(t, &stubEngine{})

	resp := postJSON(t, srv.URL+"/v1/takes", map[string]any{"text": "", "voice": "zephyr"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/v1/takes", map[string]any{"text": "x", "voice": "nobody"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown voice status = %d, want 400", resp.StatusCode)
	}
}

func TestRateLimitedSynthesisStatus(t *testing.T) {
	srv := newTestServer(t, &stubEngine{err: &engine.ProviderError{Status: 429, Message: "RESOURCE_EXHAUSTED"}})

	resp := postJSON(t, srv.URL+"/v1/takes", map[string]any{"text": "x", "voice": "zephyr"})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, resp, &body)
	if !strings.Contains(body.Message, "rate limited") {
		t.Errorf("message = %q, want rate-limit wording", body.Message)
	}

	// The cooldown now gates subsequent requests.
	resp = postJSON(t, srv.URL+"/v1/takes", map[string]any{"text": "x", "voice": "adam"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("cooled-down status = %d, want 429", resp.StatusCode)
	}

	quotaResp, err := http.Get(srv.URL + "/v1/quota")
	if err != nil {
		t.Fatalf("GET quota: %v", err)
	}
	var q struct {
		CooldownSeconds int `json:"cooldown_seconds"`
	}
	decodeBody(t, quotaResp, &q)
	if q.CooldownSeconds <= 0 {
		t.Errorf("cooldown_seconds = %d, want > 0", q.CooldownSeconds)
	}
}

func TestProviderFailureStatus(t *testing.T) {
	srv := newTestServer(t, &stubEngine{err: &engine.ProviderError{Status: 500, Message: "backend down"}})

	resp := postJSON(t, srv.URL+"/v1/takes", map[string]any{"text": "x", "voice": "zephyr"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestDownloadEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubEngine{})

	resp := postJSON(t, srv.URL+"/v1/takes", map[string]any{
		"text":  "x",
		"voice": "zephyr",
		"export": map[string]string{
			"book_title":    "My Book",
			"chapter_title": "Intro",
			"part":          "1",
		},
	})
	var tk struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &tk)

	dl, err := http.Get(srv.URL + "/v1/takes/" + tk.ID + "/download")
	if err != nil {
		t.Fatalf("GET download: %v", err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", dl.StatusCode)
	}
	if ct := dl.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("content type = %q, want audio/wav", ct)
	}
	if cd := dl.Header.Get("Content-Disposition"); !strings.Contains(cd, "MY_BOOK_INTRO_1.wav") {
		t.Errorf("content disposition = %q", cd)
	}

	head := make([]byte, 4)
	if _, err := io.ReadFull(dl.Body, head); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(head) != "RIFF" {
		t.Errorf("body starts with %q, want RIFF", head)
	}
}

func TestDownloadMissingTake(t *testing.T) {
	srv := newTestServer(t, &stubEngine{})

	resp, err := http.Get(srv.URL + "/v1/takes/missing/download")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRemoveTakeEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubEngine{})

	resp := postJSON(t, srv.URL+"/v1/takes", map[string]any{"text": "x", "voice": "zephyr"})
	var tk struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &tk)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/takes/"+tk.ID, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", del.StatusCode)
	}

	del2, _ := http.DefaultClient.Do(req)
	del2.Body.Close()
	if del2.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", del2.StatusCode)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubEngine{})

	resp := postJSON(t, srv.URL+"/v1/previews", map[string]any{"voice": "charon"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Voice           string  `json:"voice"`
		DurationSeconds float64 `json:"duration_seconds"`
	}
	decodeBody(t, resp, &body)
	if body.Voice != "charon" || body.DurationSeconds != 1.0 {
		t.Errorf("body = %+v", body)
	}
}

func TestListVoicesEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubEngine{})

	resp, err := http.Get(srv.URL + "/v1/voices?platform=ELEVEN_LABS_PREMIUM")
	if err != nil {
		t.Fatalf("GET voices: %v", err)
	}
	var body struct {
		Voices []voice.Profile `json:"voices"`
	}
	decodeBody(t, resp, &body)
	if len(body.Voices) != 8 {
		t.Errorf("got %d voices, want 8", len(body.Voices))
	}
	for _, v := range body.Voices {
		if v.Platform != voice.PlatformElevenLabs {
			t.Errorf("voice %q has platform %q", v.ID, v.Platform)
		}
	}

	bad, err := http.Get(srv.URL + "/v1/voices?platform=AZURE")
	if err != nil {
		t.Fatalf("GET voices: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown platform status = %d, want 400", bad.StatusCode)
	}
}

func TestQuotaResetEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubEngine{})

	postJSON(t, srv.URL+"/v1/takes", map[string]any{"text": "x", "voice": "zephyr"}).Body.Close()

	resp := postJSON(t, srv.URL+"/v1/quota/reset", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("reset status = %d, want 204", resp.StatusCode)
	}

	quotaResp, err := http.Get(srv.URL + "/v1/quota")
	if err != nil {
		t.Fatalf("GET quota: %v", err)
	}
	var q struct {
		Usage quota.UsageState `json:"usage"`
	}
	decodeBody(t, quotaResp, &q)
	if used := q.Usage.Quotas[voice.PlatformGemini].Used; used != 0 {
		t.Errorf("used = %d after reset, want 0", used)
	}
}
