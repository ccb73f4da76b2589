// Package auth validates lobby-issued session tokens. The game server never
// mints tokens itself; the lobby writes them to shared Redis when a player
// is routed here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/HolySSA/holyshit-game-server/internal/protocol"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is what a valid token resolves to: the player's identity, the room
// they were routed to, and the character the lobby dealt them.
type Claims struct {
	UserID   int
	RoomID   int
	Nickname string

	RoomName string
	OwnerID  int
	MaxUsers int

	CharacterType protocol.CharacterType
	RoleType      protocol.RoleType
	HP            int
}

// Validator is the external auth collaborator. A failed validation maps to
// an authentication-failed response, never a transport disconnect.
type Validator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

const tokenKeyFormat = "game:token:%s"

// RedisValidator resolves tokens against the Redis instance shared with the
// lobby server.
type RedisValidator struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedisValidator(rdb *redis.Client, log *zap.Logger) *RedisValidator {
	return &RedisValidator{rdb: rdb, log: log}
}

func (v *RedisValidator) Validate(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	fields, err := v.rdb.HGetAll(ctx, fmt.Sprintf(tokenKeyFormat, token)).Result()
	if err != nil {
		return nil, fmt.Errorf("look up token: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		UserID:        atoi(fields["userId"]),
		RoomID:        atoi(fields["roomId"]),
		Nickname:      fields["nickname"],
		RoomName:      fields["roomName"],
		OwnerID:       atoi(fields["ownerId"]),
		MaxUsers:      atoi(fields["maxUsers"]),
		CharacterType: protocol.CharacterType(atoi(fields["characterType"])),
		RoleType:      protocol.RoleType(atoi(fields["roleType"])),
		HP:            atoi(fields["hp"]),
	}
	if claims.UserID == 0 || claims.RoomID == 0 {
		v.log.Warn("token record missing identity fields", zap.Int("userId", claims.UserID))
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
