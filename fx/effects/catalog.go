package effects

import "github.com/cwbudde/algo-fxhost/fx/protocol"

// Effect type tags as known to the coprocessor firmware.
const (
	TypePitchShift protocol.EffectType = 1
	TypeGain       protocol.EffectType = 2
	TypeRingMod    protocol.EffectType = 3
	TypeOscillator protocol.EffectType = 4
)

// Parameter IDs. ID 0 is the enabled flag on every type.
const (
	ParamFreqShift protocol.ParamID = 1

	ParamLevel protocol.ParamID = 1

	ParamCarrier protocol.ParamID = 1
	ParamMix     protocol.ParamID = 2

	ParamRate   protocol.ParamID = 1
	ParamDepth  protocol.ParamID = 2
	ParamOffset protocol.ParamID = 3
	ParamShape  protocol.ParamID = 4
)

// Registry names of the built-in types.
const (
	NamePitchShift = "pitchshift"
	NameGain       = "gain"
	NameRingMod    = "ringmod"
	NameOscillator = "oscillator"
)

// TypeName returns the registry name for a type tag, or "" if unknown.
func TypeName(t protocol.EffectType) string {
	switch t {
	case TypePitchShift:
		return NamePitchShift
	case TypeGain:
		return NameGain
	case TypeRingMod:
		return NameRingMod
	case TypeOscillator:
		return NameOscillator
	default:
		return ""
	}
}
