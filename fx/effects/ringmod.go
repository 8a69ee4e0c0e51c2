package effects

import (
	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

const maxCarrier = 20000

// RingMod multiplies its input with a sine carrier and blends the result
// with the dry signal. The second audio input "carrier_in" replaces the
// internal carrier when routed.
type RingMod struct {
	*canvas.Effect

	ctrl      *canvas.Node
	carrierIn *canvas.Node
}

// NewRingMod creates a detached ring modulator with a 440 Hz carrier.
func NewRingMod(name string) (*RingMod, error) {
	e, err := canvas.NewEffect(TypeRingMod, nameOr(name, NameRingMod))
	if err != nil {
		return nil, err
	}

	carrier, err := e.DeclareParam(canvas.ParamSpec{
		ID:      ParamCarrier,
		Name:    "carrier",
		Default: protocol.Float(440),
		Check:   canvas.FloatRange(0, maxCarrier),
	})
	if err != nil {
		return nil, err
	}

	if _, err = e.DeclareParam(canvas.ParamSpec{
		ID:      ParamMix,
		Name:    "mix",
		Default: protocol.Float(1),
		Check:   canvas.FloatRange(0, 1),
	}); err != nil {
		return nil, err
	}

	ctrl, err := e.DeclareControlInput("carrier", carrier)
	if err != nil {
		return nil, err
	}

	in, err := e.DeclareAudio("carrier_in", canvas.In)
	if err != nil {
		return nil, err
	}

	return &RingMod{Effect: e, ctrl: ctrl, carrierIn: in}, nil
}

// SetCarrier sets the carrier frequency in Hz.
func (r *RingMod) SetCarrier(hz float32) error {
	return r.SetParam(ParamCarrier, protocol.Float(hz))
}

// SetMix sets the wet share in [0, 1].
func (r *RingMod) SetMix(mix float32) error {
	return r.SetParam(ParamMix, protocol.Float(mix))
}

// CarrierControl returns the control input driving the carrier frequency.
func (r *RingMod) CarrierControl() *canvas.Node { return r.ctrl }

// CarrierInput returns the external carrier audio input.
func (r *RingMod) CarrierInput() *canvas.Node { return r.carrierIn }
