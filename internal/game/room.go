package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HolySSA/holyshit-game-server/internal/protocol"
)

var (
	ErrUserNotFound  = errors.New("user not in room")
	ErrCardNotFound  = errors.New("card not in hand")
	ErrInvalidTarget = errors.New("invalid target user")
	ErrGameFinished  = errors.New("game already finished")
	ErrRoomFull      = errors.New("room is full")
)

// RoomState is the room lifecycle: Open accepts actions, Finished is
// terminal and only teardown is allowed afterwards.
type RoomState int

const (
	RoomOpen RoomState = iota + 1
	RoomFinished
)

// Sender delivers one outbound message to a user's live session. Delivery to
// a disconnected user is a silent no-op for the room.
type Sender interface {
	Send(userID int, id protocol.PacketID, msg any) bool
}

// StatsRecorder is the external stats collaborator. All methods are
// best-effort: implementations log failures and never block game logic.
type StatsRecorder interface {
	RecordPlay(ctx context.Context, userID int, characterType protocol.CharacterType)
	RecordWin(ctx context.Context, userID int, characterType protocol.CharacterType)
	RecordMatch(ctx context.Context, roomID int, winType protocol.WinType, winnerIDs []int)
}

// RoomData is the room description carried by the lobby token.
type RoomData struct {
	ID       int
	OwnerID  int
	Name     string
	MaxUsers int
}

// PhaseDurations configures the day/night cadence.
type PhaseDurations struct {
	Day     time.Duration
	Evening time.Duration
}

// DefaultPhaseDurations matches the live game balance.
var DefaultPhaseDurations = PhaseDurations{Day: 3 * time.Minute, Evening: 1 * time.Minute}

func (p PhaseDurations) of(phase protocol.Phase) time.Duration {
	if phase == protocol.PhaseEvening {
		return p.Evening
	}
	return p.Day
}

// Room is the authoritative state of one game instance. Every mutation —
// join, leave, card use, reaction, phase flip — runs under mu, so no two
// mutations of one room are ever concurrent, regardless of which session or
// timer triggered them.
type Room struct {
	mu sync.Mutex

	ID       int
	OwnerID  int
	Name     string
	MaxUsers int

	state       RoomState
	users       map[int]*User
	deck        *CardDeck
	spawns      *SpawnPointPool
	phase       protocol.Phase
	nextPhaseAt time.Time
	phaseTimer  *time.Timer
	started     bool
	closed      bool

	durations PhaseDurations
	sender    Sender
	stats     StatsRecorder
	seq       *protocol.Sequence
	log       *zap.Logger
}

func NewRoom(data RoomData, durations PhaseDurations, sender Sender, stats StatsRecorder, seq *protocol.Sequence, log *zap.Logger) *Room {
	return &Room{
		ID:        data.ID,
		OwnerID:   data.OwnerID,
		Name:      data.Name,
		MaxUsers:  data.MaxUsers,
		state:     RoomOpen,
		users:     make(map[int]*User),
		deck:      NewCardDeck(),
		spawns:    NewSpawnPointPool(),
		phase:     protocol.PhaseDay,
		durations: durations,
		sender:    sender,
		stats:     stats,
		seq:       seq,
		log:       log.With(zap.Int("roomId", data.ID)),
	}
}

// Join adds a member, allocates a spawn point and deals the initial hand
// (one card per starting hp). When the roster fills, the phase scheduler
// starts and every member receives the full game state.
func (r *Room) Join(u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RoomFinished {
		return ErrGameFinished
	}
	if _, ok := r.users[u.ID]; !ok && len(r.users) >= r.MaxUsers {
		return ErrRoomFull
	}

	if pt, ok := r.spawns.Acquire(); ok {
		u.spawn, u.hasSpawn = pt, true
		u.X, u.Y = pt.X, pt.Y
	}
	u.Character.Hand = append(u.Character.Hand, r.deck.Draw(u.Character.HP)...)
	r.users[u.ID] = u
	r.log.Info("user joined room", zap.Int("userId", u.ID), zap.Int("members", len(r.users)))

	if !r.started && len(r.users) == r.MaxUsers {
		r.started = true
		r.nextPhaseAt = time.Now().Add(r.durations.of(r.phase))
		r.armPhaseTimerLocked()
		r.broadcastLocked(protocol.PacketGameStartNotification, &protocol.S2CGameStartNotification{
			Phase:       r.phase,
			NextPhaseAt: r.nextPhaseAt.UnixMilli(),
			Users:       r.userListLocked(),
			Positions:   r.positionsLocked(),
		})
		for _, member := range r.users {
			go r.stats.RecordPlay(context.Background(), member.ID, member.Character.Type)
		}
		r.log.Info("room ready, phase scheduler started", zap.Time("nextPhaseAt", r.nextPhaseAt))
	}
	return nil
}

// Leave removes a member. The last remaining member of an unfinished game
// wins by their role's rule. empty reports membership reaching zero, at
// which point the room has already been torn down and must be dropped from
// the registry.
func (r *Room) Leave(userID int) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return len(r.users) == 0
	}
	if u.hasSpawn {
		r.spawns.Release(u.spawn)
		u.hasSpawn = false
	}
	delete(r.users, userID)
	r.log.Info("user left room", zap.Int("userId", userID), zap.Int("members", len(r.users)))

	if len(r.users) == 1 && r.state != RoomFinished {
		for _, last := range r.users {
			r.finishLocked(winTypeForRole(last.Character.Role), []int{last.ID})
		}
	}
	if len(r.users) == 0 {
		r.teardownLocked()
		return true
	}
	return false
}

// UseCard removes the named card from the actor's hand, recycles it to the
// bottom of the deck and, for targeted cards, links actor and target into a
// shooter/target interaction. Validation happens before any mutation.
func (r *Room) UseCard(actorID, targetID int, ct protocol.CardType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RoomFinished {
		return ErrGameFinished
	}
	actor, ok := r.users[actorID]
	if !ok {
		return ErrUserNotFound
	}
	var target *User
	if targetID != 0 {
		if target, ok = r.users[targetID]; !ok || targetID == actorID {
			return ErrInvalidTarget
		}
	}
	card, ok := actor.Character.TakeCard(ct)
	if !ok {
		return ErrCardNotFound
	}
	r.deck.Discard(card)

	if target != nil {
		actor.Character.State = protocol.StateBbangShooter
		actor.Character.StateTargetID = target.ID
		target.Character.State = protocol.StateBbangTarget
		target.Character.StateTargetID = actor.ID
	}
	return nil
}

// Reaction resolves the caller's pending target interaction: the target
// loses exactly 1 hp, both interaction states clear, then win conditions are
// evaluated.
func (r *Room) Reaction(userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RoomFinished {
		return ErrGameFinished
	}
	target, ok := r.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	if target.Character.State != protocol.StateBbangTarget {
		return ErrInvalidTarget
	}
	shooter := r.users[target.Character.StateTargetID]

	target.Character.HP--
	target.Character.State = protocol.StateNone
	target.Character.StateTargetID = 0
	if shooter != nil {
		shooter.Character.State = protocol.StateNone
		shooter.Character.StateTargetID = 0
	}

	// Roster update goes out before win evaluation so clients see the hp
	// change ahead of any game-end announcement.
	r.broadcastLocked(protocol.PacketUserUpdateNotification, &protocol.S2CUserUpdateNotification{
		Users: r.userListLocked(),
	})

	if ended, winType, winners := r.checkGameEndLocked(); ended {
		r.finishLocked(winType, winners)
	}
	return nil
}

// UpdatePosition moves a member and returns the full position list for the
// follow-up notification.
func (r *Room) UpdatePosition(userID int, x, y float64) ([]protocol.CharacterPosition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.X, u.Y = x, y
	return r.positionsLocked(), nil
}

// CheckGameEnd evaluates the win conditions without mutating anything.
func (r *Room) CheckGameEnd() (ended bool, winType protocol.WinType, winners []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkGameEndLocked()
}

// checkGameEndLocked applies the role rules in order:
//  1. dead Target with a living Hitman -> Hitman wins
//  2. living Psychopath while everyone else is dead -> Psychopath wins
//  3. no living Hitman and no living Psychopath -> living Target and
//     Bodyguard members win jointly
func (r *Room) checkGameEndLocked() (bool, protocol.WinType, []int) {
	if r.state == RoomFinished {
		return false, protocol.WinNone, nil
	}

	targetDead := true
	everyoneButPsychoIsDead := true
	var livingHitmen, livingPsychos, livingDefenders []int
	for _, u := range r.users {
		alive := u.Character.Alive()
		switch u.Character.Role {
		case protocol.RoleTarget:
			if alive {
				targetDead = false
				everyoneButPsychoIsDead = false
				livingDefenders = append(livingDefenders, u.ID)
			}
		case protocol.RoleBodyguard:
			if alive {
				everyoneButPsychoIsDead = false
				livingDefenders = append(livingDefenders, u.ID)
			}
		case protocol.RoleHitman:
			if alive {
				everyoneButPsychoIsDead = false
				livingHitmen = append(livingHitmen, u.ID)
			}
		case protocol.RolePsychopath:
			if alive {
				livingPsychos = append(livingPsychos, u.ID)
			}
		}
	}

	switch {
	case targetDead && len(livingHitmen) > 0:
		return true, protocol.WinHitman, livingHitmen
	case len(livingPsychos) > 0 && everyoneButPsychoIsDead:
		return true, protocol.WinPsychopath, livingPsychos
	case len(livingHitmen) == 0 && len(livingPsychos) == 0:
		return true, protocol.WinTargetAndBodyguard, livingDefenders
	default:
		return false, protocol.WinNone, nil
	}
}

// finishLocked transitions to Finished, records stats per winner and sends
// the game-end broadcast exactly once.
func (r *Room) finishLocked(winType protocol.WinType, winners []int) {
	if r.state == RoomFinished {
		return
	}
	r.state = RoomFinished
	r.stopPhaseTimerLocked()

	for _, id := range winners {
		if u, ok := r.users[id]; ok {
			go r.stats.RecordWin(context.Background(), id, u.Character.Type)
		}
	}
	go r.stats.RecordMatch(context.Background(), r.ID, winType, winners)

	r.broadcastLocked(protocol.PacketGameEndNotification, &protocol.S2CGameEndNotification{
		WinType:   winType,
		WinnerIDs: winners,
	})
	r.log.Info("game finished", zap.Int("winType", int(winType)), zap.Ints("winners", winners))
}

func winTypeForRole(role protocol.RoleType) protocol.WinType {
	switch role {
	case protocol.RoleHitman:
		return protocol.WinHitman
	case protocol.RolePsychopath:
		return protocol.WinPsychopath
	default:
		return protocol.WinTargetAndBodyguard
	}
}

// armPhaseTimerLocked schedules the next phase flip.
func (r *Room) armPhaseTimerLocked() {
	d := time.Until(r.nextPhaseAt)
	r.phaseTimer = time.AfterFunc(d, r.phaseExpired)
}

func (r *Room) stopPhaseTimerLocked() {
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
		r.phaseTimer = nil
	}
}

// phaseExpired flips Day and Evening. Leaving Day reshuffles every member's
// position. A timer cancelled during teardown may still have fired; the
// closed/finished checks keep it from mutating a dead room.
func (r *Room) phaseExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.state == RoomFinished {
		return
	}

	previous := r.phase
	if previous == protocol.PhaseDay {
		r.phase = protocol.PhaseEvening
		r.spawns.Reset()
		for _, u := range r.users {
			u.hasSpawn = false
			if pt, ok := r.spawns.Acquire(); ok {
				u.spawn, u.hasSpawn = pt, true
				u.X, u.Y = pt.X, pt.Y
			}
		}
	} else {
		r.phase = protocol.PhaseDay
	}

	r.nextPhaseAt = time.Now().Add(r.durations.of(r.phase))
	r.broadcastLocked(protocol.PacketPhaseUpdateNotification, &protocol.S2CPhaseUpdateNotification{
		Phase:       r.phase,
		NextPhaseAt: r.nextPhaseAt.UnixMilli(),
		Positions:   r.positionsLocked(),
	})
	r.armPhaseTimerLocked()
	r.log.Debug("phase updated", zap.Int("phase", int(r.phase)), zap.Time("nextPhaseAt", r.nextPhaseAt))
}

func (r *Room) teardownLocked() {
	if r.closed {
		return
	}
	r.closed = true
	r.stopPhaseTimerLocked()
	r.spawns.Reset()
	r.log.Info("room torn down")
}

func (r *Room) broadcastLocked(id protocol.PacketID, msg any) {
	for _, u := range r.users {
		r.sender.Send(u.ID, id, msg)
	}
}

func (r *Room) userListLocked() []protocol.UserData {
	out := make([]protocol.UserData, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.ToData())
	}
	return out
}

func (r *Room) positionsLocked() []protocol.CharacterPosition {
	out := make([]protocol.CharacterPosition, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.ToPosition())
	}
	return out
}

// UserList snapshots the roster for notifications.
func (r *Room) UserList() []protocol.UserData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userListLocked()
}

// MemberIDs snapshots the member user ids.
func (r *Room) MemberIDs() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}

// User returns the member with the given id, or nil.
func (r *Room) User(userID int) *User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID]
}

// State reports the lifecycle state.
func (r *Room) State() RoomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Phase reports the current phase and its deadline.
func (r *Room) Phase() (protocol.Phase, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase, r.nextPhaseAt
}

// MemberCount reports the current roster size.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
