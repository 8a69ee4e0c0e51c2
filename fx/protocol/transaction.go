package protocol

import (
	"errors"
	"fmt"
)

// Undefined marks an unset instance, port or parameter field. System nodes of
// the canvas (instrument input, amplifier output) use it as their instance.
const Undefined = 0xff

// ParamEnabled is the parameter ID every effect type reserves for its
// enabled/bypass flag.
const ParamEnabled ParamID = 0

var (
	// ErrShortFrame is returned when a buffer ends before a complete frame or message.
	ErrShortFrame = errors.New("protocol: short frame")
	// ErrBadSync is returned when a frame does not start with the sync byte.
	ErrBadSync = errors.New("protocol: bad sync byte")
	// ErrChecksum is returned when a frame's CRC does not match its contents.
	ErrChecksum = errors.New("protocol: checksum mismatch")
	// ErrUnknownKind is returned for frames of an unknown kind.
	ErrUnknownKind = errors.New("protocol: unknown frame kind")
	// ErrBadPayload is returned when a message body cannot be interpreted.
	ErrBadPayload = errors.New("protocol: bad payload")
)

// EffectType identifies the effect-type table the coprocessor uses to
// interpret parameter IDs.
type EffectType uint8

// ParamID is an effect-type-local parameter identifier.
type ParamID uint8

// Transaction is one parameter update for one effect instance.
type Transaction struct {
	Effect   EffectType
	Instance uint8
	Param    ParamID
	Value    Value
}

// String formats the transaction for logs.
func (t Transaction) String() string {
	return fmt.Sprintf("fx=%d inst=%d param=%d %s=%s",
		t.Effect, t.Instance, t.Param, t.Value.Type(), t.Value)
}

// AppendBinary appends effect type, instance, value type, parameter ID and
// payload, in that order.
func (t Transaction) AppendBinary(dst []byte) []byte {
	dst = append(dst, byte(t.Effect), t.Instance, byte(t.Value.Type()), byte(t.Param))
	return t.Value.AppendPayload(dst)
}

// Frame wraps the transaction in a param frame.
func (t Transaction) Frame() Frame {
	return Frame{Kind: KindParam, Body: t.AppendBinary(nil)}
}

// DecodeTransaction parses a param frame body.
func DecodeTransaction(body []byte) (Transaction, error) {
	if len(body) < 4 {
		return Transaction{}, fmt.Errorf("%w: transaction header needs 4 bytes, got %d", ErrShortFrame, len(body))
	}

	v, err := ParseValue(ValueType(body[2]), body[4:])
	if err != nil {
		return Transaction{}, err
	}

	return Transaction{
		Effect:   EffectType(body[0]),
		Instance: body[1],
		Param:    ParamID(body[3]),
		Value:    v,
	}, nil
}

// Declare announces an effect instance to the coprocessor.
type Declare struct {
	Effect   EffectType
	Instance uint8
}

// Frame wraps the declaration in a declare frame.
func (d Declare) Frame() Frame {
	return Frame{Kind: KindDeclare, Body: []byte{byte(d.Effect), d.Instance}}
}

// DecodeDeclare parses a declare frame body.
func DecodeDeclare(body []byte) (Declare, error) {
	if len(body) != 2 {
		return Declare{}, fmt.Errorf("%w: declare body needs 2 bytes, got %d", ErrBadPayload, len(body))
	}
	return Declare{Effect: EffectType(body[0]), Instance: body[1]}, nil
}

// RouteKind distinguishes audio routes from control routes.
type RouteKind uint8

const (
	RouteAudio RouteKind = iota
	RouteControl
)

// String returns "audio" or "control".
func (k RouteKind) String() string {
	if k == RouteControl {
		return "control"
	}
	return "audio"
}

// Port addresses one node of one instance.
type Port struct {
	Instance uint8
	Node     uint8
}

// RouteDecl announces a route. Param is the controlled parameter of a control
// route and Undefined for audio routes.
type RouteDecl struct {
	Kind  RouteKind
	From  Port
	To    Port
	Param ParamID
}

// Frame wraps the route in a route frame.
func (r RouteDecl) Frame() Frame {
	return Frame{Kind: KindRoute, Body: []byte{
		byte(r.Kind),
		r.From.Instance, r.From.Node,
		r.To.Instance, r.To.Node,
		byte(r.Param),
	}}
}

// DecodeRoute parses a route frame body.
func DecodeRoute(body []byte) (RouteDecl, error) {
	if len(body) != 6 {
		return RouteDecl{}, fmt.Errorf("%w: route body needs 6 bytes, got %d", ErrBadPayload, len(body))
	}

	kind := RouteKind(body[0])
	if kind > RouteControl {
		return RouteDecl{}, fmt.Errorf("%w: route kind %d", ErrBadPayload, kind)
	}

	return RouteDecl{
		Kind:  kind,
		From:  Port{Instance: body[1], Node: body[2]},
		To:    Port{Instance: body[3], Node: body[4]},
		Param: ParamID(body[5]),
	}, nil
}
