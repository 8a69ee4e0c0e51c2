package canvas

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned when an instance, route, parameter or
	// node table is full.
	ErrCapacityExceeded = errors.New("canvas: capacity exceeded")
	// ErrRouteCapacityExceeded is returned when the route table is full. It
	// matches ErrCapacityExceeded with errors.Is.
	ErrRouteCapacityExceeded = fmt.Errorf("%w: route table full", ErrCapacityExceeded)
	// ErrIncompatibleNodes is returned when two nodes cannot be connected.
	ErrIncompatibleNodes = errors.New("canvas: incompatible nodes")
	// ErrParameterOutOfDomain is returned when a value fails type or range validation.
	ErrParameterOutOfDomain = errors.New("canvas: parameter out of domain")
	// ErrParameterControlled is returned when a direct write targets a
	// parameter owned by a control route.
	ErrParameterControlled = errors.New("canvas: parameter is controlled")
	// ErrNotAttached is returned when an effect or node is not attached to the canvas.
	ErrNotAttached = errors.New("canvas: effect not attached")
	// ErrTransportFailure is returned when a bus transaction did not complete.
	ErrTransportFailure = errors.New("canvas: transport failure")
	// ErrUnknownParameter is returned for parameter IDs an effect does not declare.
	ErrUnknownParameter = errors.New("canvas: unknown parameter")
	// ErrAlreadyAttached is returned when attaching an effect twice or
	// declaring ports on an attached effect.
	ErrAlreadyAttached = errors.New("canvas: effect already attached")
	// ErrNoRoute is returned when disconnecting nodes that are not routed.
	ErrNoRoute = errors.New("canvas: no such route")
)

var errDuplicate = errors.New("duplicate declaration")
