package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HolySSA/holyshit-game-server/internal/data"
	"github.com/HolySSA/holyshit-game-server/internal/game"
	"github.com/HolySSA/holyshit-game-server/internal/protocol"
	"github.com/HolySSA/holyshit-game-server/internal/session"
)

func newOpsRouter(t *testing.T) (http.Handler, *game.RoomRegistry) {
	t.Helper()
	log := zap.NewNop()

	path := filepath.Join(t.TempDir(), "monster_info.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":[
		{"id":"M001","name":"Slime","hp":"10"},
		{"id":"M002","name":"Goblin","hp":"25"}
	]}`), 0o644))
	staticData, err := data.Load(path, log)
	require.NoError(t, err)

	rooms := game.NewRoomRegistry(
		game.PhaseDurations{Day: time.Hour, Evening: time.Hour},
		nil, nil, protocol.NewSequence(), log,
	)
	return SetupRoutes(rooms, session.NewRegistry(log), staticData), rooms
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	router, _ := newOpsRouter(t)
	assert.Equal(t, http.StatusOK, get(t, router, "/healthz").Code)
}

func TestListRooms(t *testing.T) {
	router, rooms := newOpsRouter(t)
	rooms.GetOrCreate(game.RoomData{ID: 1, OwnerID: 10, Name: "alpha", MaxUsers: 4})

	rec := get(t, router, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Members  int    `json:"members"`
		MaxUsers int    `json:"maxUsers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "alpha", out[0].Name)
	assert.Equal(t, 4, out[0].MaxUsers)
	assert.Equal(t, 0, out[0].Members)
}

func TestSessionCount(t *testing.T) {
	router, _ := newOpsRouter(t)

	rec := get(t, router, "/sessions")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Sessions int `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 0, out.Sessions)
}

func TestStaticData(t *testing.T) {
	router, _ := newOpsRouter(t)

	rec := get(t, router, "/data")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Monsters int `json:"monsters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Monsters)
}
