package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the studio.
type EventType string

const (
	TakeCreated     EventType = "take.created"
	TakeRemoved     EventType = "take.removed"
	SynthesisFailed EventType = "synthesis.failed"
	CooldownStarted EventType = "quota.cooldown.started"
	QuotaReset      EventType = "quota.reset"
	PlaybackStarted EventType = "playback.started"
	PlaybackStopped EventType = "playback.stopped"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// TakeData is the payload for take.created and take.removed events.
type TakeData struct {
	TakeID          string  `json:"take_id"`
	Platform        string  `json:"platform"`
	Voice           string  `json:"voice"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// SynthesisFailedData is the payload for synthesis.failed events.
type SynthesisFailedData struct {
	Platform string `json:"platform"`
	Voice    string `json:"voice"`
	Reason   string `json:"reason"`
}

// CooldownStartedData is the payload for quota.cooldown.started events.
type CooldownStartedData struct {
	Seconds int `json:"seconds"`
}

// PlaybackData is the payload for playback.started and playback.stopped.
type PlaybackData struct {
	TakeID string `json:"take_id,omitempty"`
}
