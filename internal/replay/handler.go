package replay

import (
	"context"

	"solana-launchpad/internal/domain"
)

// Handler processes journal events in order.
type Handler interface {
	// OnEvent is called for each event. Events arrive with strictly
	// increasing, contiguous Seq.
	OnEvent(ctx context.Context, event *domain.Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event *domain.Event) error

// OnEvent calls f.
func (f HandlerFunc) OnEvent(ctx context.Context, event *domain.Event) error {
	return f(ctx, event)
}
