// Package simulation connects crosscore to the external cross-simulation
// engine. It defines the transport-only Engine boundary, an HTTP client for
// remote engines, and an asynchronous run worker that validates a
// configuration, submits its payload, and archives the request and decoded
// outcome as run artifacts. The probability math itself lives entirely
// behind the Engine boundary.
package simulation

import (
	"context"

	"crosscore/pkg/genetics"
)

// Engine computes phenotype and sex distributions for a cross payload.
type Engine interface {
	Simulate(ctx context.Context, payload genetics.CrossPayload) (Outcome, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, payload genetics.CrossPayload) (Outcome, error)

// Simulate implements Engine.
func (f EngineFunc) Simulate(ctx context.Context, payload genetics.CrossPayload) (Outcome, error) {
	return f(ctx, payload)
}
