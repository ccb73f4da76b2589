package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HolySSA/holyshit-game-server/internal/data"
	"github.com/HolySSA/holyshit-game-server/internal/game"
	"github.com/HolySSA/holyshit-game-server/internal/session"
)

// SetupRoutes builds the ops router with the registries injected.
func SetupRoutes(rooms *game.RoomRegistry, sessions *session.Registry, staticData *data.Provider) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/rooms", ListRooms(rooms))
	r.Get("/sessions", SessionCount(sessions))
	r.Get("/data", StaticData(staticData))
	return r
}
