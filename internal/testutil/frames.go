package testutil

import (
	"slices"
	"testing"

	"github.com/cwbudde/algo-fxhost/fx/protocol"
)

// RequireKinds fails t unless frames have exactly the given kinds in order.
func RequireKinds(t *testing.T, frames []protocol.Frame, want ...protocol.Kind) {
	t.Helper()

	got := make([]protocol.Kind, len(frames))
	for i, f := range frames {
		got[i] = f.Kind
	}

	if !slices.Equal(got, want) {
		t.Fatalf("frame kinds = %v, want %v", got, want)
	}
}
