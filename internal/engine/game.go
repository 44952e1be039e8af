package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Game is the state of one round. It is not safe for concurrent use; a room
// owns it exclusively.
type Game struct {
	Rules          Rules
	Deck           []int
	Cards          map[Position]int
	Players        map[string]Status
	ClaimedNoMatch bool
}

func NewGame(rules Rules, rng *rand.Rand) *Game {
	return &Game{
		Rules:   rules,
		Deck:    rng.Perm(DeckSize),
		Cards:   map[Position]int{},
		Players: map[string]Status{},
	}
}

// Add seeds a player at score zero, keeping any score already held.
func (g *Game) Add(player string) {
	g.Players[player] = g.Players[player]
}

func (g *Game) DeckSize() int {
	return len(g.Deck)
}

// Columns is the current column count, never below the protected grid.
func (g *Game) Columns() int {
	cols := g.Rules.Cols
	for p := range g.Cards {
		if p.X+1 > cols {
			cols = p.X + 1
		}
	}
	return cols
}

// ListCards returns the visible card values in ascending order.
func (g *Game) ListCards() []int {
	cs := make([]int, 0, len(g.Cards))
	for _, c := range g.Cards {
		cs = append(cs, c)
	}
	slices.Sort(cs)
	return cs
}

func (g *Game) CountMatches() int {
	return CountMatches(g.ListCards(), g.Rules.MatchSize)
}

// Over reports the terminal condition: deck exhausted and no match visible.
func (g *Game) Over() bool {
	if len(g.Deck) > 0 {
		return false
	}
	return g.CountMatches() == 0
}

func (g *Game) findCard(c int) (Position, bool) {
	for p, cc := range g.Cards {
		if cc == c {
			return p, true
		}
	}
	return Position{}, false
}

func (g *Game) empty(p Position) bool {
	_, ok := g.Cards[p]
	return !ok
}

func (g *Game) score(name string, delta int) int {
	s := g.Players[name]
	s.Score += delta
	g.Players[name] = s
	return s.Score
}

func (g *Game) late(name string) Outcome {
	return Outcome{Result: ResultLate, Score: g.Players[name].Score}
}

// ClaimMatch checks a claimed match. A non-nil error explains a late outcome.
func (g *Game) ClaimMatch(name string, cards []int) (Outcome, error) {
	if g.Over() {
		return g.late(name), ErrRoundOver
	}
	ps := make([]Position, 0, len(cards))
	for _, c := range cards {
		p, ok := g.findCard(c)
		if !ok {
			return g.late(name), fmt.Errorf("%w: %d", ErrCardNotOnBoard, c)
		}
		ps = append(ps, p)
	}
	if len(cards) != g.Rules.MatchSize || !distinct(cards) || !IsGroup(cards) {
		return Outcome{Result: ResultWrong, Score: g.score(name, -1)}, nil
	}
	for _, p := range ps {
		delete(g.Cards, p)
	}
	return Outcome{Result: ResultCorrect, Score: g.score(name, 1), Removed: ps}, nil
}

// ClaimNoMatch checks a claim that the board holds no match. The claim must
// list exactly the visible cards. A correct claim deals one more column; a
// wrong one blocks further no-match claims until the next deal.
func (g *Game) ClaimNoMatch(name string, cards []int) (Outcome, error) {
	if g.Over() {
		return g.late(name), ErrRoundOver
	}
	if len(cards) < g.Rules.MinNoMatchCards() {
		return g.late(name), fmt.Errorf("%w: %d", ErrTooFewCards, len(cards))
	}
	if g.ClaimedNoMatch {
		return g.late(name), ErrAlreadyClaimed
	}
	claimed := slices.Clone(cards)
	slices.Sort(claimed)
	if !slices.Equal(claimed, g.ListCards()) {
		return g.late(name), ErrBoardMismatch
	}
	n := g.CountMatches()
	if n == 0 {
		return Outcome{Result: ResultCorrect, Score: g.score(name, 1), Dealt: g.DealMore()}, nil
	}
	g.ClaimedNoMatch = true
	return Outcome{Result: ResultWrong, Score: g.score(name, -1), Matches: n}, nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (g *Game) Clone() *Game {
	c := *g
	c.Deck = slices.Clone(g.Deck)
	c.Cards = make(map[Position]int, len(g.Cards))
	for p, v := range g.Cards {
		c.Cards[p] = v
	}
	c.Players = make(map[string]Status, len(g.Players))
	for n, s := range g.Players {
		c.Players[n] = s
	}
	return &c
}

func distinct(cards []int) bool {
	seen := make(map[int]struct{}, len(cards))
	for _, c := range cards {
		if _, ok := seen[c]; ok {
			return false
		}
		seen[c] = struct{}{}
	}
	return true
}
