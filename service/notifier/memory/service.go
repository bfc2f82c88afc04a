// Package memory provides a queue-backed notifier for embedded deciders and
// tests: prompts are published to an in-process queue that a decider (CLI,
// auto-approver, test) consumes.
package memory

import (
	"context"

	"github.com/viant/oversight/service/messaging"
	qmem "github.com/viant/oversight/service/messaging/memory"
	"github.com/viant/oversight/service/notifier"
)

// Service is an in-process prompt feed.
type Service struct {
	prompts *qmem.Queue[notifier.Prompt]
}

// Notify publishes the prompt on the feed.
func (s *Service) Notify(ctx context.Context, prompt *Prompt) error {
	return s.prompts.Publish(ctx, prompt)
}

// Prompt aliases the notifier prompt for the queue payload.
type Prompt = notifier.Prompt

// Queue exposes the prompt feed for consumers.
func (s *Service) Queue() messaging.Queue[notifier.Prompt] {
	return s.prompts
}

// New creates an in-memory notifier.
func New() *Service {
	return &Service{prompts: qmem.NewQueue[notifier.Prompt](qmem.DefaultConfig())}
}

var _ notifier.Service = (*Service)(nil)
