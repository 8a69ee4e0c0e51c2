// Package patch reads and writes YAML patch files: the effects of a canvas
// with their parameter values, the routes between them and MIDI bindings.
//
// A patch is built onto an empty canvas without transmitting anything;
// call Canvas.Sync afterwards to establish it on the coprocessor.
package patch
