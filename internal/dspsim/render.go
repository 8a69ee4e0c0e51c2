package dspsim

import (
	"maps"
	"slices"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fxhost/fx/effects"
	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// Process renders in through the mirrored graph and returns what reaches the
// amp output. The input is processed in blocks of Config.BlockSize samples;
// control routes are evaluated once at the start of each block. Nothing
// routed to the amp output yields silence.
func (c *Coprocessor) Process(in []float64) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, err := c.order()
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(in))

	for start := 0; start < len(in); start += c.cfg.BlockSize {
		end := min(start+c.cfg.BlockSize, len(in))
		c.block(order, in[start:end], out[start:end])
	}

	return out, nil
}

// order sorts the instances along the audio routes (Kahn's algorithm).
// Instances without dependencies are taken in ascending ID order.
func (c *Coprocessor) order() ([]uint8, error) {
	indegree := make(map[uint8]int, len(c.instances))
	outgoing := make(map[uint8][]uint8, len(c.instances))

	for id := range c.instances {
		indegree[id] = 0
	}

	for _, r := range c.routes {
		if r.Kind != protocol.RouteAudio || r.From.Instance == protocol.Undefined || r.To.Instance == protocol.Undefined {
			continue
		}

		outgoing[r.From.Instance] = append(outgoing[r.From.Instance], r.To.Instance)
		indegree[r.To.Instance]++
	}

	queue := make([]uint8, 0, len(c.instances))

	for _, id := range slices.Sorted(maps.Keys(indegree)) {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]uint8, 0, len(c.instances))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		order = append(order, id)
		for _, to := range outgoing[id] {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if len(order) != len(c.instances) {
		return nil, ErrCycle
	}

	return order, nil
}

func (c *Coprocessor) block(order []uint8, in, out []float64) {
	n := len(in)

	for _, inst := range c.instances {
		inst.advance(n)
	}

	// Modulators overwrite the parameter they drive.
	for _, r := range c.routes {
		if r.Kind != protocol.RouteControl {
			continue
		}

		src, dst := c.instances[r.From.Instance], c.instances[r.To.Instance]
		if src == nil || dst == nil || src.typ != effects.TypeOscillator {
			continue
		}

		dst.params[r.Param] = protocol.Float(float32(src.control))
	}

	for _, id := range order {
		inst := c.instances[id]
		inst.resize(n)

		for _, r := range c.routes {
			if r.Kind != protocol.RouteAudio || r.To.Instance != id {
				continue
			}

			src := c.source(r.From, in)
			if r.To.Node == 0 {
				vecmath.AddBlockInPlace(inst.in, src)
				continue
			}

			vecmath.AddBlockInPlace(inst.aux, src)
			inst.auxRouted = true
		}

		inst.process()
	}

	clear(out)

	for _, r := range c.routes {
		if r.Kind == protocol.RouteAudio && r.To.Instance == protocol.Undefined {
			vecmath.AddBlockInPlace(out, c.source(r.From, in))
		}
	}
}

// source returns the buffer feeding a route: the block input for the
// instrument node, otherwise the producing instance's output.
func (c *Coprocessor) source(p protocol.Port, in []float64) []float64 {
	if p.Instance == protocol.Undefined {
		return in
	}
	return c.instances[p.Instance].out
}
