package engine

import (
	"context"
	"time"

	"github.com/viant/oversight/model/approval"
)

// DecisionFunc inspects a pending request and returns the callback to apply,
// or nil to leave the request pending.
type DecisionFunc func(r *approval.Request) *approval.Callback

// AutoDecider starts a goroutine that polls Pending and applies fn to every
// request. It returns stop() – call it (or cancel ctx) to exit. Intended for
// tests, demos and embedded deciders.
func AutoDecider(ctx context.Context, svc *Service, fn DecisionFunc, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				requests, _ := svc.Pending(ctx)
				for _, r := range requests {
					if callback := fn(r); callback != nil {
						_, _ = svc.Decide(ctx, r.CorrelationID, callback)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending requests as responder.
func AutoApprove(ctx context.Context, svc *Service, responder string, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*approval.Request) *approval.Callback {
		return &approval.Callback{SelectedOption: approval.OptionApprove, ResponderEmail: responder}
	}, interval)
}

// AutoReject automatically rejects all pending requests as responder.
func AutoReject(ctx context.Context, svc *Service, responder string, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*approval.Request) *approval.Callback {
		return &approval.Callback{SelectedOption: approval.OptionReject, ResponderEmail: responder}
	}, interval)
}
