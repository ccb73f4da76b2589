package game

import (
	"sync"

	"go.uber.org/zap"
)

// UserRegistry tracks live user records across the process. A record exists
// from successful authentication until leave or disconnect.
type UserRegistry struct {
	mu    sync.Mutex
	users map[int]*User
	log   *zap.Logger
}

func NewUserRegistry(log *zap.Logger) *UserRegistry {
	return &UserRegistry{users: make(map[int]*User), log: log}
}

// Create registers a user record. An existing record for the same id is
// replaced; the session registry already evicted the old connection.
func (ur *UserRegistry) Create(u *User) *User {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	ur.users[u.ID] = u
	ur.log.Info("user created", zap.Int("userId", u.ID), zap.String("nickname", u.Nickname))
	return u
}

// Get returns the live user record, or nil.
func (ur *UserRegistry) Get(userID int) *User {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	return ur.users[userID]
}

// Remove drops a user record.
func (ur *UserRegistry) Remove(userID int) bool {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	if _, ok := ur.users[userID]; !ok {
		return false
	}
	delete(ur.users, userID)
	ur.log.Info("user removed", zap.Int("userId", userID))
	return true
}

// Count reports the number of live users.
func (ur *UserRegistry) Count() int {
	ur.mu.Lock()
	defer ur.mu.Unlock()
	return len(ur.users)
}
