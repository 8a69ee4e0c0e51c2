package canvas

import "github.com/cwbudde/algo-fxhost/fx/protocol"

// NodeKind distinguishes audio ports from control ports.
type NodeKind uint8

const (
	KindAudio NodeKind = iota
	KindControl
)

// String returns "audio" or "control".
func (k NodeKind) String() string {
	if k == KindControl {
		return "control"
	}
	return "audio"
}

func (k NodeKind) routeKind() protocol.RouteKind {
	if k == KindControl {
		return protocol.RouteControl
	}
	return protocol.RouteAudio
}

// Direction is the signal direction of a port, seen from its owner.
type Direction uint8

const (
	In Direction = iota
	Out
)

// String returns "in" or "out".
func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

// Node is an audio or control port. Nodes are owned by exactly one effect,
// or by the canvas for the two system nodes, and are referenced by routes.
type Node struct {
	kind  NodeKind
	dir   Direction
	vtype protocol.ValueType
	label string
	index uint8

	owner  *Effect
	system *Canvas

	// param is the parameter a control input drives.
	param *Param
	// routes counts routes that start or end at this node.
	routes int
}

// Kind returns whether the node carries audio or control values.
func (n *Node) Kind() NodeKind { return n.kind }

// Direction returns the node's direction.
func (n *Node) Direction() Direction { return n.dir }

// ValueType returns the type of values the node carries. Audio nodes carry floats.
func (n *Node) ValueType() protocol.ValueType { return n.vtype }

// Label returns the node name.
func (n *Node) Label() string { return n.label }

// Owner returns the owning effect, or nil for system nodes.
func (n *Node) Owner() *Effect { return n.owner }

// Param returns the parameter a control input drives, or nil.
func (n *Node) Param() *Param { return n.param }

// Connected reports whether any route starts or ends at the node.
func (n *Node) Connected() bool { return n.routes > 0 }

// canvas returns the canvas the node currently belongs to.
func (n *Node) canvas() *Canvas {
	if n.system != nil {
		return n.system
	}
	if n.owner != nil {
		return n.owner.canvas
	}
	return nil
}

// port returns the relational address of the node on the wire.
func (n *Node) port() protocol.Port {
	if n.system != nil {
		return protocol.Port{Instance: protocol.Undefined, Node: n.index}
	}
	return protocol.Port{Instance: uint8(n.owner.instance), Node: n.index}
}

// Endpoint is a relational reference to a node: the owning instance ID (or
// protocol.Undefined for system nodes) and the node's port index.
type Endpoint struct {
	Instance int
	Port     int
}

// Route is a directed connection between two nodes.
type Route struct {
	Kind protocol.RouteKind
	From Endpoint
	To   Endpoint
}

// route stores its endpoints as ports into the canvas's tables rather than
// holding the nodes themselves.
type route struct {
	kind protocol.RouteKind
	from protocol.Port
	to   protocol.Port
}

func (r route) public() Route {
	return Route{
		Kind: r.kind,
		From: Endpoint{Instance: int(r.from.Instance), Port: int(r.from.Node)},
		To:   Endpoint{Instance: int(r.to.Instance), Port: int(r.to.Node)},
	}
}

func (r route) touches(instance uint8) bool {
	return r.from.Instance == instance || r.to.Instance == instance
}
