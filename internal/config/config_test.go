package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, ":8080", cfg.OpsAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 3*time.Minute, cfg.DayPhase)
	assert.Equal(t, time.Minute, cfg.EveningPhase)
	assert.Equal(t, "assets/monster_info.json", cfg.MonsterDataPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":6000")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("DAY_PHASE", "45s")

	cfg := Load()
	assert.Equal(t, ":6000", cfg.ListenAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 45*time.Second, cfg.DayPhase)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("EVENING_PHASE", "soon")

	cfg := Load()
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.EveningPhase)
}
