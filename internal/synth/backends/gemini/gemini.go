package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kevsila/narrator/internal/audio"
	"github.com/kevsila/narrator/internal/synth/backends/restutil"
	"github.com/kevsila/narrator/internal/synth/engine"
	"github.com/kevsila/narrator/internal/synth/registry"
)

const defaultModel = "gemini-2.5-flash-preview-tts"

func init() {
	registry.Engines.Register("gemini", func(config map[string]string) (engine.Engine, error) {
		apiKey := config["gemini_api_key"]
		if apiKey == "" {
			apiKey = config["api_key"]
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key required (set gemini_api_key in config)")
		}
		model := config["model"]
		if model == "" {
			model = defaultModel
		}
		baseURL := config["base_url"]
		if baseURL == "" {
			baseURL = "https://generativelanguage.googleapis.com/v1beta"
		}
		return &Gemini{apiKey: apiKey, model: model, baseURL: baseURL}, nil
	})
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64-encoded PCM16LE 24kHz mono
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Gemini implements engine.Engine using the Gemini generateContent REST API
// with audio-only response modality.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
}

func (g *Gemini) Synthesize(ctx context.Context, req engine.Request) (audio.Decoded, error) {
	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	body := generateRequest{
		Contents: []content{{Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: req.NativeVoice},
				},
			},
		},
	}

	var resp generateResponse
	if err := restutil.DoJSON(ctx, "POST", apiURL, nil, body, &resp); err != nil {
		return audio.Decoded{}, classify(err)
	}

	payload := firstAudioPayload(resp)
	if payload == "" {
		return audio.Decoded{}, engine.ErrNoAudio
	}

	decoded, err := audio.DecodePCM16(payload)
	if err != nil {
		return audio.Decoded{}, fmt.Errorf("gemini synthesis: %w", err)
	}
	return decoded, nil
}

func (g *Gemini) Close() error {
	return nil
}

// firstAudioPayload returns the base64 audio of the first candidate part
// carrying inline data, or "" when the response holds no audio.
func firstAudioPayload(resp generateResponse) string {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return p.InlineData.Data
			}
		}
		break // only the first candidate is considered
	}
	return ""
}

// classify converts transport failures into engine.ProviderError. An
// explicit RESOURCE_EXHAUSTED from the provider counts as a rate limit
// even when the HTTP status is not 429.
func classify(err error) error {
	var he *restutil.HTTPError
	if !errors.As(err, &he) {
		return &engine.ProviderError{Message: err.Error()}
	}

	status := he.Status
	if strings.Contains(he.Body, "RESOURCE_EXHAUSTED") {
		status = 429
	}
	return &engine.ProviderError{Status: status, Message: he.Body}
}
