// Package canvas holds the host-side model of an effect graph that runs on a
// DSP coprocessor.
//
// A [Canvas] owns up to [MaxInstances] effects and [MaxRoutes] routes. Each
// [Effect] carries a parameter stack and its audio and control ports. Routes
// join an output [Node] to an input node of the same kind and value type;
// a control route into a parameter's control input puts that parameter in
// [Controlled] mode, which rejects direct writes until the route is removed.
//
// All parameter changes pass through the canvas, which encodes them as
// [protocol.Transaction] frames and hands them to its [Transport] in call
// order. Writes that would not change the value last transmitted are dropped.
//
// A Canvas and its effects are not safe for concurrent use.
package canvas
