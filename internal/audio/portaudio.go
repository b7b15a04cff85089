package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioDevice implements Device on top of the host's PortAudio
// subsystem. Initialization is lazy and happens at most once.
type PortAudioDevice struct {
	mu          sync.Mutex
	initialized bool
}

// NewPortAudioDevice creates an uninitialized PortAudio device.
func NewPortAudioDevice() *PortAudioDevice {
	return &PortAudioDevice{}
}

// Ready initializes PortAudio once. Repeated calls are no-ops.
func (d *PortAudioDevice) Ready() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	d.initialized = true
	return nil
}

// Open opens the default output stream at the given rate.
func (d *PortAudioDevice) Open(sampleRate, channels int) (Stream, error) {
	const bufferSize = 1024
	buf := make([]float32, bufferSize)

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), bufferSize, &buf)
	if err != nil {
		return nil, fmt.Errorf("open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}

	return &portAudioStream{stream: stream, buf: buf}, nil
}

// Close terminates PortAudio if it was initialized.
func (d *PortAudioDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return nil
	}
	d.initialized = false
	return portaudio.Terminate()
}

type portAudioStream struct {
	stream *portaudio.Stream
	buf    []float32
}

func (s *portAudioStream) Write(samples []float32) error {
	copy(s.buf, samples)
	for i := len(samples); i < len(s.buf); i++ {
		s.buf[i] = 0
	}
	return s.stream.Write()
}

func (s *portAudioStream) Close() error {
	s.stream.Stop()
	return s.stream.Close()
}
