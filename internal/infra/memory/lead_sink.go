package memory

import (
	"context"
	"sync"

	"screening-quiz-service/internal/domain"
)

// LeadSink collects lead payloads in memory; used in tests and when the
// service runs without Postgres.
type LeadSink struct {
	mu    sync.Mutex
	leads []domain.LeadPayload
}

func NewLeadSink() *LeadSink {
	return &LeadSink{}
}

func (s *LeadSink) SaveLead(_ context.Context, payload domain.LeadPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, payload)
	return nil
}

// Leads returns a copy of everything saved so far.
func (s *LeadSink) Leads() []domain.LeadPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LeadPayload, len(s.leads))
	copy(out, s.leads)
	return out
}
