package audio

import (
	"fmt"
	"sync"
)

// Device abstracts the host audio subsystem so playback can be exercised
// without a sound card. Ready must be idempotent: the host may refuse to
// run audio output until explicitly resumed, and callers retry it freely.
type Device interface {
	Ready() error
	Open(sampleRate, channels int) (Stream, error)
	Close() error
}

// Stream is one open output stream accepting float32 sample buffers.
type Stream interface {
	Write(samples []float32) error
	Close() error
}

// handle is the single currently-active playback source.
type handle struct {
	stream Stream
	stop   chan struct{}
	done   chan struct{}
}

// Player owns the shared output device and enforces that at most one
// playback handle is active at any instant. Starting a new playback stops
// and discards the previous handle first.
type Player struct {
	mu     sync.Mutex
	dev    Device
	ready  bool
	active *handle
}

// NewPlayer creates a player over the given device. The device is not
// touched until EnsureReady or Play.
func NewPlayer(dev Device) *Player {
	return &Player{dev: dev}
}

// EnsureReady initializes or resumes the output device. Safe to call
// repeatedly; a no-op once the device is running.
func (p *Player) EnsureReady() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureReadyLocked()
}

func (p *Player) ensureReadyLocked() error {
	if p.ready {
		return nil
	}
	if err := p.dev.Ready(); err != nil {
		return fmt.Errorf("audio device not ready: %w", err)
	}
	p.ready = true
	return nil
}

// Play starts playback of the given buffer, replacing any active handle.
// The replaced handle's pump is drained before the new stream opens, so
// two streams never write concurrently. Playback runs on its own
// goroutine; when it finishes naturally the active slot is cleared.
func (p *Player) Play(d Decoded) error {
	p.mu.Lock()
	if err := p.ensureReadyLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	old := p.active
	p.stopLocked()
	p.mu.Unlock()

	if old != nil {
		<-old.done
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// A concurrent Play may have installed a handle while we drained.
	p.stopLocked()

	stream, err := p.dev.Open(d.SampleRate, d.Channels)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}

	h := &handle{
		stream: stream,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.active = h

	go p.pump(h, d.Samples)
	return nil
}

// pump writes the buffer to the stream in fixed-size chunks until it is
// exhausted or the handle is stopped, then clears the active slot if this
// handle still owns it.
func (p *Player) pump(h *handle, samples []float32) {
	defer close(h.done)
	defer h.stream.Close()

	const chunk = 1024
	buf := make([]float32, chunk)

	for pos := 0; pos < len(samples); pos += chunk {
		select {
		case <-h.stop:
			p.clear(h)
			return
		default:
		}

		n := copy(buf, samples[pos:])
		for i := n; i < chunk; i++ {
			buf[i] = 0
		}
		if err := h.stream.Write(buf); err != nil {
			break
		}
	}

	p.clear(h)
}

// clear releases the active slot if h still owns it.
func (p *Player) clear(h *handle) {
	p.mu.Lock()
	if p.active == h {
		p.active = nil
	}
	p.mu.Unlock()
}

// Stop halts the active playback, if any. Stopping an idle or already
// finished player is a no-op and never an error.
func (p *Player) Stop() {
	p.mu.Lock()
	h := p.active
	p.stopLocked()
	p.mu.Unlock()

	if h != nil {
		<-h.done
	}
}

func (p *Player) stopLocked() {
	if p.active == nil {
		return
	}
	select {
	case <-p.active.stop:
	default:
		close(p.active.stop)
	}
	p.active = nil
}

// Playing reports whether a handle is currently active.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// Close stops playback and releases the device.
func (p *Player) Close() error {
	p.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return nil
	}
	p.ready = false
	return p.dev.Close()
}
