// Package stats is the external statistics collaborator: per-character
// play/win counters in Redis, plus optional match history in Postgres.
// Everything here is best-effort — failures are logged and never reach the
// game logic.
package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/HolySSA/holyshit-game-server/internal/protocol"
)

const userCharactersKeyFormat = "user:%d:characters"

// MatchRecord is one finished game, persisted per winner.
type MatchRecord struct {
	ID           uint `gorm:"primaryKey"`
	RoomID       int
	WinType      int
	WinnerUserID int
	FinishedAt   time.Time
}

// Service implements the game engine's StatsRecorder. db may be nil when no
// Postgres DSN is configured; match history is skipped in that case.
type Service struct {
	rdb *redis.Client
	db  *gorm.DB
	log *zap.Logger
}

func NewService(rdb *redis.Client, db *gorm.DB, log *zap.Logger) *Service {
	return &Service{rdb: rdb, db: db, log: log}
}

// Migrate creates the match history table.
func (s *Service) Migrate() error {
	if s.db == nil {
		return nil
	}
	return s.db.AutoMigrate(&MatchRecord{})
}

// RecordPlay bumps the play counter of the user's character.
func (s *Service) RecordPlay(ctx context.Context, userID int, characterType protocol.CharacterType) {
	s.bump(ctx, userID, characterType, 1, 0)
}

// RecordWin bumps the win counter of the user's character.
func (s *Service) RecordWin(ctx context.Context, userID int, characterType protocol.CharacterType) {
	s.bump(ctx, userID, characterType, 0, 1)
}

// bump rewrites the "play:win" hash field the lobby server reads back.
func (s *Service) bump(ctx context.Context, userID int, characterType protocol.CharacterType, playDelta, winDelta int) {
	key := fmt.Sprintf(userCharactersKeyFormat, userID)
	field := strconv.Itoa(int(characterType))

	current, err := s.rdb.HGet(ctx, key, field).Result()
	if err != nil {
		s.log.Warn("character stats missing", zap.Int("userId", userID), zap.Error(err))
		return
	}
	parts := strings.SplitN(current, ":", 2)
	if len(parts) != 2 {
		s.log.Error("malformed character stats value", zap.Int("userId", userID), zap.String("value", current))
		return
	}
	play, err1 := strconv.Atoi(parts[0])
	win, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		s.log.Error("malformed character stats value", zap.Int("userId", userID), zap.String("value", current))
		return
	}

	next := fmt.Sprintf("%d:%d", play+playDelta, win+winDelta)
	if err := s.rdb.HSet(ctx, key, field, next).Err(); err != nil {
		s.log.Warn("write character stats", zap.Int("userId", userID), zap.Error(err))
		return
	}
	s.log.Info("character stats updated",
		zap.Int("userId", userID), zap.Int("characterType", int(characterType)), zap.String("stats", next))
}

// RecordMatch persists one finished game per winner.
func (s *Service) RecordMatch(ctx context.Context, roomID int, winType protocol.WinType, winnerIDs []int) {
	if s.db == nil {
		return
	}
	now := time.Now()
	records := make([]MatchRecord, 0, len(winnerIDs))
	for _, id := range winnerIDs {
		records = append(records, MatchRecord{
			RoomID:       roomID,
			WinType:      int(winType),
			WinnerUserID: id,
			FinishedAt:   now,
		})
	}
	if len(records) == 0 {
		records = append(records, MatchRecord{RoomID: roomID, WinType: int(winType), FinishedAt: now})
	}
	if err := s.db.WithContext(ctx).Create(&records).Error; err != nil {
		s.log.Warn("persist match record", zap.Int("roomId", roomID), zap.Error(err))
	}
}
