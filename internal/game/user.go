package game

import "github.com/HolySSA/holyshit-game-server/internal/protocol"

// User is one room member: identity, character and position. Users live
// inside exactly one Room and are mutated under that room's lock.
type User struct {
	ID        int
	Nickname  string
	Character *Character
	X         float64
	Y         float64

	// spawn is the point allocated to this user, released on leave. Tracked
	// separately from X/Y, which move with position updates.
	spawn    SpawnPoint
	hasSpawn bool
}

func (u *User) ToData() protocol.UserData {
	return protocol.UserData{
		ID:        u.ID,
		Nickname:  u.Nickname,
		Character: u.Character.ToData(),
	}
}

func (u *User) ToPosition() protocol.CharacterPosition {
	return protocol.CharacterPosition{ID: u.ID, X: u.X, Y: u.Y}
}
