package app

import (
	"context"
	"math/rand"
	"time"

	"screening-quiz-service/internal/catalog"
	"screening-quiz-service/internal/domain"
	"screening-quiz-service/internal/lead"
	"screening-quiz-service/internal/scoring"
)

// CatalogRepository loads question catalogs (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// SessionRepository abstracts how live sessions are tracked (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	// Persist mirrors mutable session state to any external store; best effort.
	Persist(session *Session)
	// Snapshot returns mirrored state surviving outside the process, if any.
	Snapshot(ctx context.Context, sessionID string) (Snapshot, bool)
}

// Engine wires the catalog, the per-session state machines, the scoring rules
// and the lead sink into the use cases the transport exposes.
type Engine struct {
	catalogs      CatalogRepository
	sessions      SessionRepository
	sink          lead.Sink
	catalogID     string
	clientID      string
	submitTimeout time.Duration
	clock         func() time.Time
	newRand       func() *rand.Rand
}

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithClock overrides the engine's time source. Session timestamps, derived
// ages and lead payloads all read from it.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithShuffleSeed fixes the seed used when shuffling classification options,
// making built sequences deterministic.
func WithShuffleSeed(seed int64) Option {
	return func(e *Engine) {
		e.newRand = func() *rand.Rand { return rand.New(rand.NewSource(seed)) }
	}
}

// NewEngine builds the engine and verifies the outcome assignment table is
// complete, so a broken table fails at startup rather than at a user's reveal.
func NewEngine(catalogs CatalogRepository, sessions SessionRepository, sink lead.Sink, catalogID, clientID string, submitTimeout time.Duration, opts ...Option) (*Engine, error) {
	if err := scoring.Validate(); err != nil {
		return nil, err
	}
	if submitTimeout <= 0 {
		submitTimeout = 10 * time.Second
	}
	e := &Engine{
		catalogs:      catalogs,
		sessions:      sessions,
		sink:          sink,
		catalogID:     catalogID,
		clientID:      clientID,
		submitTimeout: submitTimeout,
		clock:         time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// StartSession builds the question sequence once and registers a session for
// it. Calling it again with the same ID returns the existing session so a
// reconnect never reshuffles options mid-run. When no live session exists but
// the repository still holds a mirrored snapshot (e.g. after a restart), the
// snapshot is restored into the fresh session before it is registered, so the
// interrupted run resumes instead of starting over.
func (e *Engine) StartSession(ctx context.Context, sessionID string) (*Session, error) {
	if session, ok := e.sessions.Get(sessionID); ok {
		return session, nil
	}

	questions, err := e.buildSequence(ctx)
	if err != nil {
		return nil, err
	}

	session := newSession(sessionID, questions, e.clock)
	if snap, ok := e.sessions.Snapshot(ctx, sessionID); ok {
		session.Restore(snap)
	}
	e.sessions.Put(session)
	return session, nil
}

// GetSession returns a live session by ID.
func (e *Engine) GetSession(sessionID string) (*Session, bool) {
	return e.sessions.Get(sessionID)
}

// PersistSession mirrors session state through the repository; call after
// mutations worth surviving a reconnect.
func (e *Engine) PersistSession(session *Session) {
	e.sessions.Persist(session)
}

// EndSession drops a session from the repository.
func (e *Engine) EndSession(sessionID string) {
	e.sessions.Delete(sessionID)
}

// Reset puts a session back to its initial state with a fresh shuffle.
func (e *Engine) Reset(ctx context.Context, session *Session) error {
	questions, err := e.buildSequence(ctx)
	if err != nil {
		return err
	}
	session.reset(questions)
	e.sessions.Persist(session)
	return nil
}

// SubmitAndReveal validates contact data, builds the lead payload and hands it
// to the sink. On success the session's reveal unlocks; on failure the error
// surfaces verbatim and the session stays retriable. The sink call is bounded
// by the configured submission timeout.
func (e *Engine) SubmitAndReveal(ctx context.Context, session *Session) error {
	answers, result, email, phone, err := session.beginSubmit()
	if err != nil {
		return err
	}

	if !lead.ValidContact(email, phone) {
		session.endSubmit(domain.ErrInvalidContact)
		return domain.ErrInvalidContact
	}

	payload := lead.BuildPayload(answers, result, email, phone, e.clientID, e.clock())

	submitCtx, cancel := context.WithTimeout(ctx, e.submitTimeout)
	defer cancel()
	err = e.sink.SaveLead(submitCtx, payload)
	session.endSubmit(err)
	if err == nil {
		e.sessions.Persist(session)
	}
	return err
}

func (e *Engine) buildSequence(ctx context.Context) ([]domain.Question, error) {
	cat, err := e.catalogs.GetCatalog(ctx, e.catalogID)
	if err != nil {
		return nil, err
	}
	return catalog.BuildSequence(cat, e.newRand())
}
