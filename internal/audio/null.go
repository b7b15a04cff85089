package audio

// NullDevice discards all output. Used when playback is disabled or no
// sound hardware is present.
type NullDevice struct{}

func NewNullDevice() *NullDevice { return &NullDevice{} }

func (*NullDevice) Ready() error { return nil }

func (*NullDevice) Open(_, _ int) (Stream, error) { return nullStream{}, nil }

func (*NullDevice) Close() error { return nil }

type nullStream struct{}

func (nullStream) Write(_ []float32) error { return nil }

func (nullStream) Close() error { return nil }
