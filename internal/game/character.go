package game

import "github.com/HolySSA/holyshit-game-server/internal/protocol"

// Character is the game-relevant state of one member's playable character.
type Character struct {
	Type   protocol.CharacterType
	Role   protocol.RoleType
	HP     int
	Weapon int

	State         protocol.CharacterState
	StateTargetID int

	Equips  []int
	Debuffs []int
	Hand    []Card
}

// Alive reports whether the character still counts for win evaluation.
func (c *Character) Alive() bool {
	return c.HP > 0
}

// TakeCard removes the first card of the given type from the hand. ok is
// false when the card is not held.
func (c *Character) TakeCard(ct protocol.CardType) (Card, bool) {
	for i, card := range c.Hand {
		if card.Type == ct {
			c.Hand = append(c.Hand[:i], c.Hand[i+1:]...)
			return card, true
		}
	}
	return Card{}, false
}

// ToData builds the wire view; hand contents never leave the server.
func (c *Character) ToData() protocol.CharacterData {
	return protocol.CharacterData{
		CharacterType: c.Type,
		RoleType:      c.Role,
		HP:            c.HP,
		Weapon:        c.Weapon,
		State:         c.State,
		StateTargetID: c.StateTargetID,
		Equips:        append([]int(nil), c.Equips...),
		Debuffs:       append([]int(nil), c.Debuffs...),
		HandCount:     len(c.Hand),
	}
}
