package dspsim

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fxhost/fx/effects"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
	"github.com/cwbudde/algo-fxhost/internal/dsp/modulation"
	"github.com/cwbudde/algo-fxhost/internal/dsp/pitch"
)

// shiftFrame is how many samples the pitch shifter collects before shifting
// them; output trails input by two frames.
const shiftFrame = 4096

// instance is the coprocessor-side state of one declared effect.
type instance struct {
	typ        protocol.EffectType
	params     map[protocol.ParamID]protocol.Value
	sampleRate float64

	// phase in cycles, for the oscillator.
	phase   float64
	control float64

	ring  *modulation.RingModulator
	shift *pitch.Stream

	in, aux, out []float64
	auxRouted    bool
}

func newInstance(typ protocol.EffectType, sampleRate float64) (*instance, error) {
	inst := &instance{
		typ:        typ,
		params:     make(map[protocol.ParamID]protocol.Value),
		sampleRate: sampleRate,
	}

	var err error

	switch typ {
	case effects.TypeRingMod:
		inst.ring, err = modulation.NewRingModulator(sampleRate)
	case effects.TypePitchShift:
		var s *pitch.Shifter
		if s, err = pitch.New(sampleRate); err == nil {
			inst.shift, err = pitch.NewStream(s, shiftFrame)
		}
	}

	if err != nil {
		return nil, err
	}

	return inst, nil
}

func (s *instance) float(id protocol.ParamID, def float64) float64 {
	v, ok := s.params[id]
	if !ok {
		return def
	}
	return float64(v.Float())
}

func (s *instance) enabled() bool {
	v, ok := s.params[protocol.ParamEnabled]
	return !ok || v.Bool()
}

// resize prepares the block buffers for n samples and clears the inputs.
func (s *instance) resize(n int) {
	s.in = fit(s.in, n)
	s.aux = fit(s.aux, n)
	s.out = fit(s.out, n)
	clear(s.in)
	clear(s.aux)
	s.auxRouted = false
}

func fit(b []float64, n int) []float64 {
	if cap(b) < n {
		return make([]float64, n)
	}
	return b[:n]
}

// advance computes the oscillator's control output for a block of n samples.
func (s *instance) advance(n int) {
	if s.typ != effects.TypeOscillator {
		return
	}

	offset := s.float(effects.ParamOffset, 1)
	if !s.enabled() {
		s.control = offset
		return
	}

	var wave float64

	switch effects.Shape(s.params[effects.ParamShape].Enum()) {
	case effects.ShapeTriangle:
		wave = 1 - 4*math.Abs(s.phase-0.5)
	case effects.ShapeSquare:
		wave = 1
		if s.phase >= 0.5 {
			wave = -1
		}
	default:
		wave = math.Sin(2 * math.Pi * s.phase)
	}

	s.control = offset + s.float(effects.ParamDepth, 0.5)*wave
	s.phase = wrap(s.phase + s.float(effects.ParamRate, 1)*float64(n)/s.sampleRate)
}

// process renders s.in (and s.aux) into s.out.
func (s *instance) process() {
	if !s.enabled() {
		copy(s.out, s.in)
		return
	}

	switch s.typ {
	case effects.TypeGain:
		vecmath.ScaleBlock(s.out, s.in, s.float(effects.ParamLevel, 1))
	case effects.TypeRingMod:
		s.ringMod()
	case effects.TypePitchShift:
		ratio := s.float(effects.ParamFreqShift, 1)
		if math.IsNaN(ratio) {
			ratio = 1
		}

		// The host accepts any positive ratio; the shifter only covers
		// two octaves either way.
		_ = s.shift.Shifter().SetRatio(min(max(ratio, pitch.MinRatio), pitch.MaxRatio))
		s.shift.Process(s.out, s.in)
	default:
		copy(s.out, s.in)
	}
}

// ringMod multiplies the input by the carrier input when one is routed,
// otherwise by the modulator's own sine.
func (s *instance) ringMod() {
	_ = s.ring.SetMix(min(max(s.float(effects.ParamMix, 1), 0), 1))

	if s.auxRouted {
		s.ring.Modulate(s.out, s.in, s.aux)
		return
	}

	_ = s.ring.SetCarrierHz(s.float(effects.ParamCarrier, 440))
	s.ring.ProcessBlock(s.out, s.in)
}

func wrap(phase float64) float64 {
	return phase - math.Floor(phase)
}
