// Package game holds the per-room engine: membership, the card deck, spawn
// allocation, phase scheduling and win evaluation. Everything inside a Room
// is mutated only while holding that room's lock.
package game

import (
	"crypto/rand"
	"math/big"

	"github.com/HolySSA/holyshit-game-server/internal/protocol"
)

// Card is one card in the deck or a hand.
type Card struct {
	Type protocol.CardType `json:"type"`
}

// deckTable fixes how many copies of each card type a fresh deck holds.
var deckTable = []struct {
	card  protocol.CardType
	count int
}{
	{protocol.CardBbang, 20},
	{protocol.CardBigBbang, 1},
	{protocol.CardShield, 10},
	{protocol.CardVaccine, 6},
	{protocol.CardCall119, 2},
	{protocol.CardDeathMatch, 4},
	{protocol.CardGuerrilla, 1},
	{protocol.CardAbsorb, 4},
	{protocol.CardHallucination, 4},
	{protocol.CardFleaMarket, 3},
	{protocol.CardMaturedSavings, 2},
	{protocol.CardWinLottery, 1},
	{protocol.CardSniperGun, 1},
	{protocol.CardHandGun, 2},
	{protocol.CardDesertEagle, 3},
	{protocol.CardAutoRifle, 2},
	{protocol.CardLaserPointer, 1},
	{protocol.CardRadar, 1},
	{protocol.CardAutoShield, 2},
	{protocol.CardStealthSuit, 2},
	{protocol.CardContainmentUnit, 3},
	{protocol.CardSatelliteTarget, 1},
	{protocol.CardBomb, 1},
}

// DeckTotal is the fixed number of cards in play. Cards only ever move
// between the draw pile and hands; none is created or destroyed.
var DeckTotal = func() int {
	total := 0
	for _, e := range deckTable {
		total += e.count
	}
	return total
}()

// CardDeck is a shuffled draw pile with discard-to-bottom recycling. It is
// owned by exactly one Room and relies on the room lock for safety.
type CardDeck struct {
	cards []Card
}

// NewCardDeck builds the full deck and shuffles it once with a
// cryptographically strong Fisher-Yates pass.
func NewCardDeck() *CardDeck {
	d := &CardDeck{cards: make([]Card, 0, DeckTotal)}
	for _, e := range deckTable {
		for i := 0; i < e.count; i++ {
			d.cards = append(d.cards, Card{Type: e.card})
		}
	}
	d.shuffle()
	return d
}

func (d *CardDeck) shuffle() {
	for n := len(d.cards) - 1; n > 0; n-- {
		k := cryptoIntn(n + 1)
		d.cards[k], d.cards[n] = d.cards[n], d.cards[k]
	}
}

// Draw removes up to count cards from the top of the pile. Fewer cards are
// returned when the pile runs short.
func (d *CardDeck) Draw(count int) []Card {
	if count > len(d.cards) {
		count = len(d.cards)
	}
	drawn := make([]Card, count)
	copy(drawn, d.cards[:count])
	d.cards = d.cards[count:]
	return drawn
}

// Discard returns a used card to the bottom of the pile.
func (d *CardDeck) Discard(c Card) {
	d.cards = append(d.cards, c)
}

// Remaining reports how many cards are left in the draw pile.
func (d *CardDeck) Remaining() int {
	return len(d.cards)
}

// cryptoIntn returns a uniform int in [0, n) from crypto/rand.
func cryptoIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails if the platform source is broken; a biased
		// shuffle is not an acceptable fallback for a card game.
		panic(err)
	}
	return int(v.Int64())
}
