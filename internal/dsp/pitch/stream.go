package pitch

import "fmt"

// Stream runs a Shifter over a continuous signal. Input is collected into
// frames; each completed frame is shifted together with its successor as
// lookahead, so output trails input by Latency samples.
type Stream struct {
	shifter *Shifter
	frame   int
	pos     int

	window []float64 // previous frame followed by the frame being filled
	out    []float64
	ready  []float64
}

// NewStream wraps shifter with frames of the given length.
func NewStream(shifter *Shifter, frame int) (*Stream, error) {
	if shifter == nil {
		return nil, fmt.Errorf("pitch stream needs a shifter")
	}

	if frame <= 0 {
		return nil, fmt.Errorf("pitch stream frame must be > 0: %d", frame)
	}

	return &Stream{
		shifter: shifter,
		frame:   frame,
		window:  make([]float64, 2*frame),
		out:     make([]float64, 2*frame),
		ready:   make([]float64, frame),
	}, nil
}

// Shifter returns the wrapped shifter.
func (s *Stream) Shifter() *Shifter { return s.shifter }

// Latency returns the delay in samples between input and shifted output.
func (s *Stream) Latency() int { return 2 * s.frame }

// Process consumes src and writes the same number of output samples to dst.
func (s *Stream) Process(dst, src []float64) {
	for i, x := range src {
		dst[i] = s.ready[s.pos]
		s.window[s.frame+s.pos] = x
		s.pos++

		if s.pos == s.frame {
			s.shifter.Process(s.out, s.window)
			copy(s.ready, s.out[:s.frame])
			copy(s.window, s.window[s.frame:])
			s.pos = 0
		}
	}
}

// Reset clears buffered audio.
func (s *Stream) Reset() {
	clear(s.window)
	clear(s.ready)
	s.pos = 0
}
