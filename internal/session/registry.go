package session

import (
	"sync"

	"go.uber.org/zap"
)

// RemovalFunc is notified exactly once per session teardown with the
// session's last user/room association.
type RemovalFunc func(sessionID string, userID, roomID int)

// Registry tracks live sessions by session id and by authenticated user id.
// At most one session is mapped to a user id at a time; binding a new one
// evicts the old.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byUser   map[int]*Session
	subs     []RemovalFunc
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byUser:   make(map[int]*Session),
		log:      log,
	}
}

// OnRemoved subscribes to session teardown. Subscriptions happen at startup,
// before any session exists.
func (r *Registry) OnRemoved(fn RemovalFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// Add registers a freshly accepted session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.log.Info("session added", zap.String("sessionId", s.ID), zap.Int("sessions", len(r.sessions)))
}

// Remove drops a session and fires the removal subscribers once. Called from
// Session.Close; a second call for the same session is a no-op.
func (r *Registry) Remove(s *Session) {
	userID, roomID := s.UserID(), s.RoomID()

	r.mu.Lock()
	if _, ok := r.sessions[s.ID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, s.ID)
	if userID != 0 && r.byUser[userID] == s {
		delete(r.byUser, userID)
	}
	subs := r.subs
	r.mu.Unlock()

	for _, fn := range subs {
		fn(s.ID, userID, roomID)
	}
	r.log.Info("session removed", zap.String("sessionId", s.ID), zap.Int("userId", userID))
}

// BindUser indexes a session under an authenticated user id. A previous
// session holding the id is detached and closed.
func (r *Registry) BindUser(userID int, s *Session) {
	r.mu.Lock()
	old := r.byUser[userID]
	r.byUser[userID] = s
	r.mu.Unlock()

	if old != nil && old != s {
		r.log.Warn("evicting previous session for user", zap.Int("userId", userID), zap.String("sessionId", old.ID))
		old.detachUser()
		old.Close()
	}
}

// Get returns the session with the given session id.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// ByUser returns the live session of an authenticated user.
func (r *Registry) ByUser(userID int) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byUser[userID]
	return s, ok
}

// Count reports the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll tears down every live session, for server shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
