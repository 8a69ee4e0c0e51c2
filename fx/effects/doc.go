// Package effects is the catalog of effect types the coprocessor firmware
// implements. Each type embeds *canvas.Effect, declares its parameter stack
// and control ports in its constructor and adds typed mutators on top of
// SetParam.
//
// Types are also available by name through a Registry, which is what patch
// files use.
package effects
