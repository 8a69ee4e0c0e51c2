package effects

import (
	"fmt"

	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// Shape selects the oscillator waveform.
type Shape uint8

const (
	ShapeSine Shape = iota
	ShapeTriangle
	ShapeSquare

	shapeCount
)

var shapeNames = [shapeCount]string{"sine", "triangle", "square"}

// String returns the shape name.
func (s Shape) String() string {
	if s < shapeCount {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", uint8(s))
}

// ParseShape maps a shape name to its enum value.
func ParseShape(name string) (Shape, error) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("effects: unknown oscillator shape %q", name)
}

// Oscillator is a low-frequency control source. Its "value" control output
// carries offset + depth*wave(t) and has no audio effect of its own; the
// audio ports pass the signal through.
type Oscillator struct {
	*canvas.Effect

	out *canvas.Node
}

// NewOscillator creates a detached 1 Hz sine oscillator swinging around 1.
func NewOscillator(name string) (*Oscillator, error) {
	e, err := canvas.NewEffect(TypeOscillator, nameOr(name, NameOscillator))
	if err != nil {
		return nil, err
	}

	specs := []canvas.ParamSpec{
		{ID: ParamRate, Name: "rate", Default: protocol.Float(1), Check: canvas.FloatRange(0.01, 50)},
		{ID: ParamDepth, Name: "depth", Default: protocol.Float(0.5), Check: canvas.FloatRange(0, 1000)},
		{ID: ParamOffset, Name: "offset", Default: protocol.Float(1), Check: canvas.FloatRange(-1000, 1000)},
		{ID: ParamShape, Name: "shape", Default: protocol.Enum(uint8(ShapeSine)), Check: canvas.EnumCount(uint8(shapeCount))},
	}

	for _, s := range specs {
		if _, err = e.DeclareParam(s); err != nil {
			return nil, err
		}
	}

	out, err := e.DeclareControlOutput("value", protocol.TypeFloat)
	if err != nil {
		return nil, err
	}

	return &Oscillator{Effect: e, out: out}, nil
}

// SetRate sets the oscillation frequency in Hz.
func (o *Oscillator) SetRate(hz float32) error {
	return o.SetParam(ParamRate, protocol.Float(hz))
}

// SetDepth sets the peak swing around the offset.
func (o *Oscillator) SetDepth(depth float32) error {
	return o.SetParam(ParamDepth, protocol.Float(depth))
}

// SetOffset sets the center value.
func (o *Oscillator) SetOffset(offset float32) error {
	return o.SetParam(ParamOffset, protocol.Float(offset))
}

// SetShape selects the waveform.
func (o *Oscillator) SetShape(s Shape) error {
	return o.SetParam(ParamShape, protocol.Enum(uint8(s)))
}

// Value returns the control output.
func (o *Oscillator) Value() *canvas.Node { return o.out }
