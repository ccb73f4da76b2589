// Package protocol defines the wire frame format, the packet id space and the
// payload messages exchanged between the game server and its clients.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownPacket = errors.New("unknown packet id")

// PacketID identifies one message kind on the wire.
type PacketID uint16

const (
	PacketNone PacketID = iota
	PacketGameServerInitRequest
	PacketGameServerInitResponse
	PacketGameStartNotification
	PacketPositionUpdateRequest
	PacketPositionUpdateResponse
	PacketPositionUpdateNotification
	PacketUseCardRequest
	PacketUseCardResponse
	PacketUseCardNotification
	PacketUserUpdateNotification
	PacketReactionRequest
	PacketReactionResponse
	PacketPhaseUpdateNotification
	PacketGameEndNotification
	PacketLeaveRoomRequest
	PacketLeaveRoomResponse
	PacketLeaveRoomNotification
)

// FailCode reports why a request was rejected. Every request/response pair
// carries one so clients are never disconnected for a recoverable error.
type FailCode int

const (
	FailNone FailCode = iota
	FailInvalidRequest
	FailAuthenticationFailed
	FailRoomNotFound
	FailUserNotFound
	FailCardNotFound
	FailInvalidTarget
	FailGameFinished
)

// RoleType decides a member's win condition.
type RoleType int

const (
	RoleNone RoleType = iota
	RoleTarget
	RoleBodyguard
	RoleHitman
	RolePsychopath
)

// CharacterType picks the playable character skin; stats are keyed by it.
type CharacterType int

const (
	CharacterNone CharacterType = iota
	CharacterRed
	CharacterShark
	CharacterMalang
	CharacterFroggy
	CharacterPink
	CharacterSwimGlasses
	CharacterMask
	CharacterDinosaur
	CharacterPinkSlime
)

// CharacterState tracks a pending card interaction between two members.
type CharacterState int

const (
	StateNone CharacterState = iota
	StateBbangShooter
	StateBbangTarget
	StateDeathMatch
	StateDeathMatchTurn
	StateFleaMarketTurn
	StateFleaMarketWait
	StateGuerrillaShooter
	StateGuerrillaTarget
	StateAbsorbing
	StateAbsorbTarget
	StateHallucinating
	StateHallucinationTarget
	StateContained
)

// WinType names the winning side announced at game end.
type WinType int

const (
	WinNone WinType = iota
	WinTargetAndBodyguard
	WinHitman
	WinPsychopath
)

// Phase is the room-wide day/night window.
type Phase int

const (
	PhaseDay Phase = iota + 1
	PhaseEvening
)

// CardType enumerates the 23 card kinds of the deck.
type CardType int

const (
	CardNone CardType = iota
	CardBbang
	CardBigBbang
	CardShield
	CardVaccine
	CardCall119
	CardDeathMatch
	CardGuerrilla
	CardAbsorb
	CardHallucination
	CardFleaMarket
	CardMaturedSavings
	CardWinLottery
	CardSniperGun
	CardHandGun
	CardDesertEagle
	CardAutoRifle
	CardLaserPointer
	CardRadar
	CardAutoShield
	CardStealthSuit
	CardContainmentUnit
	CardSatelliteTarget
	CardBomb
)

// CharacterData is the wire view of a member's character. Hand contents stay
// server-side; only the count crosses the wire.
type CharacterData struct {
	CharacterType CharacterType  `json:"characterType"`
	RoleType      RoleType       `json:"roleType"`
	HP            int            `json:"hp"`
	Weapon        int            `json:"weapon"`
	State         CharacterState `json:"state"`
	StateTargetID int            `json:"stateTargetUserId"`
	Equips        []int          `json:"equips"`
	Debuffs       []int          `json:"debuffs"`
	HandCount     int            `json:"handCardsCount"`
}

// UserData is the wire view of one room member.
type UserData struct {
	ID        int           `json:"id"`
	Nickname  string        `json:"nickname"`
	Character CharacterData `json:"character"`
}

// CharacterPosition is one member's 2-D position.
type CharacterPosition struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type C2SGameServerInitRequest struct {
	Token string `json:"token"`
}

type S2CGameServerInitResponse struct {
	Success  bool     `json:"success"`
	FailCode FailCode `json:"failCode"`
}

type S2CGameStartNotification struct {
	Phase       Phase               `json:"phaseType"`
	NextPhaseAt int64               `json:"nextPhaseAt"`
	Users       []UserData          `json:"users"`
	Positions   []CharacterPosition `json:"characterPositions"`
}

type C2SPositionUpdateRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type S2CPositionUpdateResponse struct {
	Success  bool     `json:"success"`
	FailCode FailCode `json:"failCode"`
}

type S2CPositionUpdateNotification struct {
	Positions []CharacterPosition `json:"characterPositions"`
}

type C2SUseCardRequest struct {
	CardType     CardType `json:"cardType"`
	TargetUserID int      `json:"targetUserId"`
}

type S2CUseCardResponse struct {
	Success  bool     `json:"success"`
	FailCode FailCode `json:"failCode"`
}

type S2CUseCardNotification struct {
	CardType     CardType `json:"cardType"`
	UserID       int      `json:"userId"`
	TargetUserID int      `json:"targetUserId"`
}

type S2CUserUpdateNotification struct {
	Users []UserData `json:"users"`
}

type C2SReactionRequest struct {
	ReactionType int `json:"reactionType"`
}

type S2CReactionResponse struct {
	Success  bool     `json:"success"`
	FailCode FailCode `json:"failCode"`
}

type S2CPhaseUpdateNotification struct {
	Phase       Phase               `json:"phaseType"`
	NextPhaseAt int64               `json:"nextPhaseAt"`
	Positions   []CharacterPosition `json:"characterPositions"`
}

type S2CGameEndNotification struct {
	WinType   WinType `json:"winType"`
	WinnerIDs []int   `json:"winners"`
}

type C2SLeaveRoomRequest struct{}

type S2CLeaveRoomResponse struct {
	Success  bool     `json:"success"`
	FailCode FailCode `json:"failCode"`
}

type S2CLeaveRoomNotification struct {
	UserID int `json:"userId"`
}

// DecodePayload unmarshals a frame payload into the concrete message for the
// given packet id. The mapping is an explicit switch so adding a packet is a
// compile-visible change, not a reflection lookup.
func DecodePayload(id PacketID, payload []byte) (any, error) {
	var msg any
	switch id {
	case PacketGameServerInitRequest:
		msg = &C2SGameServerInitRequest{}
	case PacketPositionUpdateRequest:
		msg = &C2SPositionUpdateRequest{}
	case PacketUseCardRequest:
		msg = &C2SUseCardRequest{}
	case PacketReactionRequest:
		msg = &C2SReactionRequest{}
	case PacketLeaveRoomRequest:
		msg = &C2SLeaveRoomRequest{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPacket, id)
	}
	if err := json.Unmarshal(payload, msg); err != nil {
		return nil, fmt.Errorf("decode payload for packet %d: %w", id, err)
	}
	return msg, nil
}

// EncodePayload marshals an outbound message body.
func EncodePayload(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}
