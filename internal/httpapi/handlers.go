// Package httpapi is the read-only ops surface: health, rooms, sessions.
// Game traffic never flows through here.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/HolySSA/holyshit-game-server/internal/data"
	"github.com/HolySSA/holyshit-game-server/internal/game"
	"github.com/HolySSA/holyshit-game-server/internal/session"
)

type roomSummary struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Members  int    `json:"members"`
	MaxUsers int    `json:"maxUsers"`
	Finished bool   `json:"finished"`
}

// ListRooms reports a summary of every live room.
func ListRooms(rooms *game.RoomRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		live := rooms.Rooms()
		out := make([]roomSummary, 0, len(live))
		for _, room := range live {
			out = append(out, roomSummary{
				ID:       room.ID,
				Name:     room.Name,
				Members:  room.MemberCount(),
				MaxUsers: room.MaxUsers,
				Finished: room.State() == game.RoomFinished,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// SessionCount reports the number of live connections.
func SessionCount(sessions *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Sessions int `json:"sessions"`
		}{Sessions: sessions.Count()})
	}
}

// StaticData reports the loaded game-balance tables.
func StaticData(staticData *data.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Monsters int `json:"monsters"`
		}{Monsters: staticData.MonsterCount()})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
