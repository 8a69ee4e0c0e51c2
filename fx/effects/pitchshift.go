package effects

import (
	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// defaultFreqShift leaves the pitch unchanged. A ratio of 2 shifts up one octave.
const defaultFreqShift = 1.0

// PitchShift transposes its input by a frequency ratio. The ratio can be
// modulated through the "freq_shift" control input.
type PitchShift struct {
	*canvas.Effect

	ctrl *canvas.Node
}

// NewPitchShift creates a detached pitch shifter starting at ratio, which
// must be greater than zero.
func NewPitchShift(name string, ratio float32) (*PitchShift, error) {
	e, err := canvas.NewEffect(TypePitchShift, nameOr(name, NamePitchShift))
	if err != nil {
		return nil, err
	}

	p, err := e.DeclareParam(canvas.ParamSpec{
		ID:      ParamFreqShift,
		Name:    "freq_shift",
		Default: protocol.Float(ratio),
		Check:   canvas.Positive(),
	})
	if err != nil {
		return nil, err
	}

	ctrl, err := e.DeclareControlInput("freq_shift", p)
	if err != nil {
		return nil, err
	}

	return &PitchShift{Effect: e, ctrl: ctrl}, nil
}

// SetFreqShift sets the shift ratio; it must be greater than zero.
func (p *PitchShift) SetFreqShift(ratio float32) error {
	return p.SetParam(ParamFreqShift, protocol.Float(ratio))
}

// FreqShift returns the in-memory shift ratio.
func (p *PitchShift) FreqShift() float32 {
	return p.Param(ParamFreqShift).Value().Float()
}

// FreqShiftControl returns the control input driving the ratio.
func (p *PitchShift) FreqShiftControl() *canvas.Node { return p.ctrl }

func nameOr(name, def string) string {
	if name == "" {
		return def
	}
	return name
}
