package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultCarrierHz = 440.0
	defaultMix       = 1.0
)

// RingModulatorOption mutates ring modulator construction parameters.
type RingModulatorOption func(*ringModConfig) error

type ringModConfig struct {
	carrierHz float64
	mix       float64
}

// WithCarrierHz sets the internal carrier frequency in Hz.
func WithCarrierHz(hz float64) RingModulatorOption {
	return func(cfg *ringModConfig) error {
		if err := checkCarrier(hz); err != nil {
			return err
		}

		cfg.carrierHz = hz

		return nil
	}
}

// WithMix sets the dry/wet mix in [0, 1], where 0 is fully dry and 1 is fully wet.
func WithMix(mix float64) RingModulatorOption {
	return func(cfg *ringModConfig) error {
		if err := checkMix(mix); err != nil {
			return err
		}

		cfg.mix = mix

		return nil
	}
}

// RingModulator multiplies its input by a bipolar carrier:
//
//	wet = input * carrier
//	output = input * (1 - mix) + wet * mix
//
// The carrier is either the internal sine oscillator or a signal supplied
// per block.
type RingModulator struct {
	sampleRate float64
	carrierHz  float64
	mix        float64

	phase    float64
	phaseInc float64

	carrier, dry []float64
}

// NewRingModulator creates a ring modulator with the given sample rate and
// optional configuration overrides.
func NewRingModulator(sampleRate float64, opts ...RingModulatorOption) (*RingModulator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("ring modulator sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := ringModConfig{carrierHz: defaultCarrierHz, mix: defaultMix}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	r := &RingModulator{
		sampleRate: sampleRate,
		carrierHz:  cfg.carrierHz,
		mix:        cfg.mix,
	}
	r.updatePhaseIncrement()

	return r, nil
}

// SetCarrierHz sets the internal carrier frequency. Zero stops the carrier.
func (r *RingModulator) SetCarrierHz(hz float64) error {
	if err := checkCarrier(hz); err != nil {
		return err
	}

	r.carrierHz = hz
	r.updatePhaseIncrement()

	return nil
}

// SetMix sets the dry/wet mix in [0, 1].
func (r *RingModulator) SetMix(mix float64) error {
	if err := checkMix(mix); err != nil {
		return err
	}

	r.mix = mix

	return nil
}

// CarrierHz returns the internal carrier frequency in Hz.
func (r *RingModulator) CarrierHz() float64 { return r.carrierHz }

// Mix returns the dry/wet mix.
func (r *RingModulator) Mix() float64 { return r.mix }

// Reset clears the oscillator phase.
func (r *RingModulator) Reset() {
	r.phase = 0
}

// Process modulates one sample with the internal carrier.
func (r *RingModulator) Process(sample float64) float64 {
	wet := sample * math.Sin(r.phase)

	r.phase += r.phaseInc
	if r.phase >= 2*math.Pi {
		r.phase -= 2 * math.Pi
	}

	return sample*(1-r.mix) + wet*r.mix
}

// ProcessBlock modulates src with the internal carrier into dst.
func (r *RingModulator) ProcessBlock(dst, src []float64) {
	r.carrier = fit(r.carrier, len(src))

	for i := range r.carrier {
		r.carrier[i] = math.Sin(r.phase)

		r.phase += r.phaseInc
		if r.phase >= 2*math.Pi {
			r.phase -= 2 * math.Pi
		}
	}

	r.Modulate(dst, src, r.carrier)
}

// Modulate multiplies src by an external carrier of the same length into
// dst. The internal oscillator does not advance.
func (r *RingModulator) Modulate(dst, src, carrier []float64) {
	r.dry = fit(r.dry, len(src))

	vecmath.ScaleBlock(r.dry, src, 1-r.mix)
	vecmath.MulBlock(dst, src, carrier)
	vecmath.ScaleBlockInPlace(dst, r.mix)
	vecmath.AddBlockInPlace(dst, r.dry)
}

func (r *RingModulator) updatePhaseIncrement() {
	r.phaseInc = 2 * math.Pi * r.carrierHz / r.sampleRate
}

func checkCarrier(hz float64) error {
	if hz < 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
		return fmt.Errorf("ring modulator carrier frequency must be >= 0 and finite: %f", hz)
	}
	return nil
}

func checkMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) || math.IsInf(mix, 0) {
		return fmt.Errorf("ring modulator mix must be in [0, 1]: %f", mix)
	}
	return nil
}

func fit(b []float64, n int) []float64 {
	if cap(b) < n {
		return make([]float64, n)
	}
	return b[:n]
}
