// Package take manages completed narration takes: ordered storage,
// removal, and export naming.
package take

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/kevsila/narrator/internal/audio"
)

const previewRunes = 80

// ExportMeta names the exported WAV file for a take.
type ExportMeta struct {
	BookTitle    string `json:"book_title"`
	ChapterTitle string `json:"chapter_title"`
	Part         string `json:"part"`
}

// Take is one completed synthesis result plus its metadata. Immutable after
// creation; the only lifecycle operation is removal from the library.
type Take struct {
	ID              string     `json:"id"`
	TextPreview     string     `json:"text_preview"`
	CreatedAt       time.Time  `json:"created_at"`
	DurationSeconds float64    `json:"duration_seconds"`
	Export          ExportMeta `json:"export"`

	// Audio is absent when synthesis failed; such takes are never stored.
	Audio *audio.Decoded `json:"-"`
}

// New builds a take from manuscript text and its decoded audio.
func New(text string, a audio.Decoded, meta ExportMeta) *Take {
	return &Take{
		ID:              xid.New().String(),
		TextPreview:     previewOf(text),
		CreatedAt:       time.Now().UTC(),
		DurationSeconds: a.Duration(),
		Export:          meta,
		Audio:           &a,
	}
}

func previewOf(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

// Filename builds the export file name: BOOKTITLE_CHAPTERTITLE_PART.wav,
// uppercased with spaces replaced by underscores.
func (m ExportMeta) Filename() string {
	join := func(s string) string {
		return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "_")
	}
	return join(m.BookTitle) + "_" + join(m.ChapterTitle) + "_" + join(m.Part) + ".wav"
}

// Library holds takes most-recent-first.
type Library struct {
	mu    sync.RWMutex
	takes []*Take
}

// NewLibrary creates an empty take library.
func NewLibrary() *Library {
	return &Library{}
}

// Add prepends a take.
func (l *Library) Add(t *Take) {
	l.mu.Lock()
	l.takes = append([]*Take{t}, l.takes...)
	l.mu.Unlock()
}

// Get returns a take by ID.
func (l *Library) Get(id string) (*Take, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.takes {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Remove deletes a take by ID, reporting whether it existed.
func (l *Library) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, t := range l.takes {
		if t.ID == id {
			l.takes = append(l.takes[:i], l.takes[i+1:]...)
			return true
		}
	}
	return false
}

// List returns a snapshot of all takes, most recent first.
func (l *Library) List() []*Take {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Take, len(l.takes))
	copy(out, l.takes)
	return out
}

// Len returns the number of stored takes.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.takes)
}
