package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"screening-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - In-process sessions stay authoritative; Redis holds a JSON snapshot of
//     answers, position and contact fields with a TTL.
//   - The snapshot lets a session survive a process restart: when the local
//     map misses, the engine reads the mirror via Snapshot and restores it
//     into a freshly built session before registering it.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
	s.mirror(session)
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
}

// Persist mirrors the session snapshot into Redis; best effort.
func (s *SessionStore) Persist(session *app.Session) {
	s.mirror(session)
}

// Snapshot fetches the mirrored state for a session ID, if any survives in Redis.
func (s *SessionStore) Snapshot(ctx context.Context, sessionID string) (app.Snapshot, bool) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil || len(raw) == 0 {
		return app.Snapshot{}, false
	}
	var snap app.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return app.Snapshot{}, false
	}
	return snap, true
}

func (s *SessionStore) mirror(session *app.Session) {
	raw, err := json.Marshal(session.Snapshot())
	if err != nil {
		return
	}
	_ = s.client.Set(context.Background(), s.key(session.ID()), raw, s.ttl).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
