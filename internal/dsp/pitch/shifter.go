package pitch

import (
	"fmt"
	"math"
)

const (
	// MinRatio and MaxRatio bound the pitch ratio a Shifter accepts.
	MinRatio = 0.25
	MaxRatio = 4.0

	defaultSequenceMs = 40.0
	defaultOverlapMs  = 8.0
	defaultSearchMs   = 10.0

	minSequenceMs = 20.0
	maxSequenceMs = 120.0
	minOverlapMs  = 4.0
	maxOverlapMs  = 60.0
	minSearchMs   = 2.0
	maxSearchMs   = 40.0

	identityEps = 1e-9
	tiny        = 1e-12
)

// Option mutates shifter construction parameters.
type Option func(*config) error

type config struct {
	sequenceMs float64
	overlapMs  float64
	searchMs   float64
}

// WithSequence sets the WSOLA sequence length in milliseconds.
func WithSequence(ms float64) Option {
	return func(cfg *config) error {
		if !inRange(ms, minSequenceMs, maxSequenceMs) {
			return fmt.Errorf("pitch shifter sequence must be in [%f, %f] ms: %f", minSequenceMs, maxSequenceMs, ms)
		}

		cfg.sequenceMs = ms

		return nil
	}
}

// WithOverlap sets the crossfade length between sequences in milliseconds.
func WithOverlap(ms float64) Option {
	return func(cfg *config) error {
		if !inRange(ms, minOverlapMs, maxOverlapMs) {
			return fmt.Errorf("pitch shifter overlap must be in [%f, %f] ms: %f", minOverlapMs, maxOverlapMs, ms)
		}

		cfg.overlapMs = ms

		return nil
	}
}

// WithSearch sets the radius of the best-overlap search in milliseconds.
func WithSearch(ms float64) Option {
	return func(cfg *config) error {
		if !inRange(ms, minSearchMs, maxSearchMs) {
			return fmt.Errorf("pitch shifter search must be in [%f, %f] ms: %f", minSearchMs, maxSearchMs, ms)
		}

		cfg.searchMs = ms

		return nil
	}
}

// Shifter performs time-domain pitch shifting using a WSOLA stretch stage
// followed by Hermite resampling back to the input length.
//
// Pitch ratio:
//   - 1.0 = unchanged
//   - 2.0 = one octave up
//   - 0.5 = one octave down
type Shifter struct {
	sampleRate float64
	ratio      float64

	sequenceLen int
	overlapLen  int
	searchLen   int
	stepOut     int

	fadeIn  []float64
	fadeOut []float64

	stretched []float64
	ref       []float64
}

// New creates a shifter at unity ratio.
func New(sampleRate float64, opts ...Option) (*Shifter, error) {
	if !isFinitePositive(sampleRate) {
		return nil, fmt.Errorf("pitch shifter sample rate must be positive and finite: %f", sampleRate)
	}

	cfg := config{
		sequenceMs: defaultSequenceMs,
		overlapMs:  defaultOverlapMs,
		searchMs:   defaultSearchMs,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.overlapMs >= cfg.sequenceMs {
		return nil, fmt.Errorf("pitch shifter overlap must be smaller than sequence: overlap=%f sequence=%f",
			cfg.overlapMs, cfg.sequenceMs)
	}

	s := &Shifter{sampleRate: sampleRate, ratio: 1}
	if err := s.build(cfg); err != nil {
		return nil, err
	}

	return s, nil
}

// Ratio returns the pitch ratio.
func (s *Shifter) Ratio() float64 { return s.ratio }

// SetRatio updates the pitch ratio.
func (s *Shifter) SetRatio(ratio float64) error {
	if !inRange(ratio, MinRatio, MaxRatio) {
		return fmt.Errorf("pitch shifter ratio must be in [%f, %f]: %f", MinRatio, MaxRatio, ratio)
	}

	s.ratio = ratio

	return nil
}

// Process pitch-shifts src into dst, which must be at least as long.
func (s *Shifter) Process(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	if math.Abs(s.ratio-1) <= identityEps {
		copy(dst, src)
		return
	}

	resampleHermite(dst[:len(src)], s.timeStretch(src))
}

func (s *Shifter) build(cfg config) error {
	s.sequenceLen = max(int(math.Round(cfg.sequenceMs*0.001*s.sampleRate)), 32)
	s.overlapLen = max(int(math.Round(cfg.overlapMs*0.001*s.sampleRate)), 8)

	if s.overlapLen >= s.sequenceLen {
		return fmt.Errorf("pitch shifter overlap too large for sequence: overlap=%d sequence=%d",
			s.overlapLen, s.sequenceLen)
	}

	s.stepOut = s.sequenceLen - s.overlapLen
	if s.stepOut < 4 {
		return fmt.Errorf("pitch shifter output hop too small: %d", s.stepOut)
	}

	s.searchLen = max(int(math.Round(cfg.searchMs*0.001*s.sampleRate)), 1)

	s.fadeIn = make([]float64, s.overlapLen)
	s.fadeOut = make([]float64, s.overlapLen)
	s.ref = make([]float64, s.overlapLen)

	for i := range s.overlapLen {
		t := float64(i) / float64(s.overlapLen-1)
		in := 0.5 - 0.5*math.Cos(math.Pi*t)
		s.fadeIn[i] = in
		s.fadeOut[i] = 1 - in
	}

	return nil
}

// timeStretch lengthens input by the ratio without changing its pitch,
// splicing sequences at the offset that best continues the previous one.
func (s *Shifter) timeStretch(input []float64) []float64 {
	targetLen := max(int(math.Round(float64(len(input))*s.ratio)), 1)
	nominalInStep := max(float64(s.stepOut)/s.ratio, 1)

	size := (targetLen/s.stepOut+4)*s.stepOut + s.sequenceLen + 1
	if cap(s.stretched) < size {
		s.stretched = make([]float64, size)
	}

	out := s.stretched[:size]
	clear(out)

	for i := range s.sequenceLen {
		out[i] = sampleZero(input, i)
	}

	outLen := s.sequenceLen
	prevStart := 0
	nextNominal := nominalInStep

	for outLen < targetLen+s.sequenceLen {
		refStart := prevStart + s.stepOut
		for i := range s.overlapLen {
			s.ref[i] = sampleZero(input, refStart+i)
		}

		candStart := s.bestOverlap(input, int(math.Round(nextNominal)))

		outStart := outLen - s.overlapLen
		for i := range s.overlapLen {
			out[outStart+i] = out[outStart+i]*s.fadeOut[i] + sampleZero(input, candStart+i)*s.fadeIn[i]
		}

		for i := s.overlapLen; i < s.sequenceLen; i++ {
			out[outStart+i] = sampleZero(input, candStart+i)
		}

		outLen = outStart + s.sequenceLen
		prevStart = candStart
		nextNominal += nominalInStep

		if prevStart > len(input)+s.sequenceLen && outLen >= targetLen {
			break
		}
	}

	return out[:targetLen]
}

// bestOverlap searches around predicted for the input offset whose
// normalized correlation with s.ref is highest.
func (s *Shifter) bestOverlap(input []float64, predicted int) int {
	best := predicted
	bestScore := math.Inf(-1)

	refEnergy := tiny
	for _, v := range s.ref {
		refEnergy += v * v
	}

	for cand := predicted - s.searchLen; cand <= predicted+s.searchLen; cand++ {
		dot := 0.0
		candEnergy := tiny

		for i, rv := range s.ref {
			cv := sampleZero(input, cand+i)
			dot += rv * cv
			candEnergy += cv * cv
		}

		if score := dot / math.Sqrt(refEnergy*candEnergy); score > bestScore {
			bestScore = score
			best = cand
		}
	}

	return best
}

func resampleHermite(out, input []float64) {
	switch {
	case len(out) == 0:
		return
	case len(input) == 1 || len(out) == 1:
		for i := range out {
			out[i] = input[0]
		}
		return
	}

	step := float64(len(input)-1) / float64(len(out)-1)
	pos := 0.0

	for i := range out {
		idx := int(math.Floor(pos))
		out[i] = hermite4(pos-float64(idx),
			sampleClamp(input, idx-1), sampleClamp(input, idx),
			sampleClamp(input, idx+1), sampleClamp(input, idx+2))
		pos += step
	}
}

// hermite4 is the 4-point, 3rd-order Hermite interpolator between x0 and x1.
func hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + x0
}

func sampleZero(x []float64, idx int) float64 {
	if idx < 0 || idx >= len(x) {
		return 0
	}
	return x[idx]
}

func sampleClamp(x []float64, idx int) float64 {
	return x[min(max(idx, 0), len(x)-1)]
}

func isFinitePositive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}
