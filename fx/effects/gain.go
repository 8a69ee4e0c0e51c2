package effects

import (
	"github.com/cwbudde/algo-fxhost/fx/canvas"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

const maxLevel = 4.0

// Gain scales its input by a linear level in [0, 4].
type Gain struct {
	*canvas.Effect

	ctrl *canvas.Node
}

// NewGain creates a detached unity gain stage.
func NewGain(name string) (*Gain, error) {
	e, err := canvas.NewEffect(TypeGain, nameOr(name, NameGain))
	if err != nil {
		return nil, err
	}

	p, err := e.DeclareParam(canvas.ParamSpec{
		ID:      ParamLevel,
		Name:    "level",
		Default: protocol.Float(1),
		Check:   canvas.FloatRange(0, maxLevel),
	})
	if err != nil {
		return nil, err
	}

	ctrl, err := e.DeclareControlInput("level", p)
	if err != nil {
		return nil, err
	}

	return &Gain{Effect: e, ctrl: ctrl}, nil
}

// SetLevel sets the linear gain.
func (g *Gain) SetLevel(level float32) error {
	return g.SetParam(ParamLevel, protocol.Float(level))
}

// Level returns the in-memory linear gain.
func (g *Gain) Level() float32 { return g.Param(ParamLevel).Value().Float() }

// LevelControl returns the control input driving the level.
func (g *Gain) LevelControl() *canvas.Node { return g.ctrl }
