package engine

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boardOf lays cards out column-major over a triples grid.
func boardOf(deck []int, cards ...int) *Game {
	g := &Game{
		Rules:   RulesFor(ModeTriples),
		Deck:    deck,
		Cards:   map[Position]int{},
		Players: map[string]Status{"ana": {}},
	}
	for i, c := range cards {
		g.Cards[Position{X: i / 3, Y: i % 3}] = c
	}
	return g
}

func TestNewGame_FullShuffledDeck(t *testing.T) {
	g := NewGame(RulesFor(ModeTriples), rand.New(rand.NewPCG(1, 2)))
	require.Len(t, g.Deck, DeckSize)
	seen := map[int]bool{}
	for _, c := range g.Deck {
		assert.False(t, seen[c], "duplicate card %d", c)
		seen[c] = true
	}
	assert.Empty(t, g.Cards)
}

func TestClaimMatch_Correct(t *testing.T) {
	g := boardOf([]int{50, 60}, 0, 1, 2, 7)

	out, err := g.ClaimMatch("ana", []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, ResultCorrect, out.Result)
	assert.Equal(t, 1, out.Score)
	assert.ElementsMatch(t, []Position{{0, 0}, {0, 1}, {0, 2}}, out.Removed)
	assert.Equal(t, map[Position]int{{1, 0}: 7}, g.Cards)
}

func TestClaimMatch_Wrong(t *testing.T) {
	g := boardOf([]int{50}, 0, 1, 3)

	out, err := g.ClaimMatch("ana", []int{0, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, ResultWrong, out.Result)
	assert.Equal(t, -1, out.Score)
	assert.Len(t, g.Cards, 3)
}

func TestClaimMatch_LateWhenCardAbsent(t *testing.T) {
	g := boardOf([]int{50, 51}, 0, 1, 2)
	before := g.Clone()

	out, err := g.ClaimMatch("ana", []int{0, 1, 5})
	assert.True(t, errors.Is(err, ErrCardNotOnBoard))
	assert.Equal(t, ResultLate, out.Result)
	assert.Equal(t, before, g)
}

func TestClaimMatch_DuplicateCardIsWrong(t *testing.T) {
	g := boardOf([]int{50}, 5, 6, 7)

	out, err := g.ClaimMatch("ana", []int{5, 5, 5})
	require.NoError(t, err)
	assert.Equal(t, ResultWrong, out.Result)
	assert.Len(t, g.Cards, 3)
}

func TestClaimMatch_WrongSize(t *testing.T) {
	g := boardOf([]int{50}, 0, 1, 2, 3)

	out, err := g.ClaimMatch("ana", []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, ResultWrong, out.Result)
}

func TestClaimMatch_LateWhenOver(t *testing.T) {
	g := boardOf(nil, 0, 1, 3)
	require.True(t, g.Over())

	out, err := g.ClaimMatch("ana", []int{0, 1, 3})
	assert.ErrorIs(t, err, ErrRoundOver)
	assert.Equal(t, ResultLate, out.Result)
}

func TestClaimMatch_Quads(t *testing.T) {
	g := &Game{
		Rules:   RulesFor(ModeQuads),
		Deck:    []int{80},
		Cards:   map[Position]int{{0, 0}: 0, {0, 1}: 4, {0, 2}: 1, {1, 0}: 3},
		Players: map[string]Status{},
	}
	out, err := g.ClaimMatch("bo", []int{0, 4, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, ResultCorrect, out.Result)
	assert.Len(t, out.Removed, 4)
	assert.Empty(t, g.Cards)
}

// noMatchBoard is twelve cards with no set among them.
var noMatchBoard = []int{0, 1, 3, 4, 9, 10, 12, 13, 27, 28, 30, 31}

func TestNoMatchBoard_HasNoMatch(t *testing.T) {
	require.Equal(t, 0, CountMatches(noMatchBoard, 3))
}

func TestClaimNoMatch_TooFewCards(t *testing.T) {
	g := boardOf([]int{80}, noMatchBoard...)

	out, err := g.ClaimNoMatch("ana", noMatchBoard[:9])
	assert.ErrorIs(t, err, ErrTooFewCards)
	assert.Equal(t, ResultLate, out.Result)
	assert.Equal(t, 0, g.Players["ana"].Score)
}

func TestClaimNoMatch_BoardMismatch(t *testing.T) {
	g := boardOf([]int{80}, noMatchBoard...)
	claimed := append([]int{}, noMatchBoard[:11]...)
	claimed = append(claimed, 80)

	_, err := g.ClaimNoMatch("ana", claimed)
	assert.ErrorIs(t, err, ErrBoardMismatch)
}

func TestClaimNoMatch_CorrectDealsColumn(t *testing.T) {
	g := boardOf([]int{80, 79, 78, 77}, noMatchBoard...)
	claimed := []int{31, 30, 28, 27, 13, 12, 10, 9, 4, 3, 1, 0}

	out, err := g.ClaimNoMatch("ana", claimed)
	require.NoError(t, err)
	assert.Equal(t, ResultCorrect, out.Result)
	assert.Equal(t, 1, out.Score)
	assert.Equal(t, []PlacedCard{
		{Position{4, 0}, 80},
		{Position{4, 1}, 79},
		{Position{4, 2}, 78},
	}, out.Dealt)
	assert.Equal(t, 5, g.Columns())
	assert.Equal(t, []int{77}, g.Deck)
	assert.Equal(t, []int{31, 30, 28, 27, 13, 12, 10, 9, 4, 3, 1, 0}, claimed, "claim slice left untouched")
}

func TestClaimNoMatch_WrongBlocksRepeat(t *testing.T) {
	cards := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	g := boardOf([]int{80}, cards...)

	out, err := g.ClaimNoMatch("ana", cards)
	require.NoError(t, err)
	assert.Equal(t, ResultWrong, out.Result)
	assert.Equal(t, -1, out.Score)
	assert.Positive(t, out.Matches)
	assert.True(t, g.ClaimedNoMatch)

	out, err = g.ClaimNoMatch("ana", cards)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Equal(t, ResultLate, out.Result)
	assert.Equal(t, -1, out.Score)

	g.Deal()
	assert.False(t, g.ClaimedNoMatch)
}

func TestOver(t *testing.T) {
	assert.True(t, boardOf(nil, 0, 1, 3).Over())
	assert.False(t, boardOf(nil, 0, 1, 2).Over())
	assert.False(t, boardOf([]int{5}, 0, 1, 3).Over())
	assert.True(t, boardOf(nil).Over())
}

func TestDeal_FillsProtectedGridInOrder(t *testing.T) {
	g := NewGame(RulesFor(ModeTriples), rand.New(rand.NewPCG(3, 4)))
	top := append([]int{}, g.Deck[:12]...)

	placed := g.Deal()
	require.Len(t, placed, 12)
	for i, pc := range placed {
		assert.Equal(t, Position{X: i / 3, Y: i % 3}, pc.Position)
		assert.Equal(t, top[i], pc.Card)
	}
	assert.Len(t, g.Deck, DeckSize-12)
	assert.Empty(t, g.Deal(), "full grid takes no more cards")
}

func TestDeal_NeverDuplicates(t *testing.T) {
	g := NewGame(RulesFor(ModeTriples), rand.New(rand.NewPCG(5, 6)))
	g.Deal()
	for len(g.Deck) > 0 {
		m, ok := FindMatch(g.ListCards(), 3)
		if !ok {
			g.DealMore()
		} else {
			_, err := g.ClaimMatch("ana", m)
			require.NoError(t, err)
			g.Compact()
			g.Deal()
		}

		seen := map[int]bool{}
		for _, c := range g.Deck {
			seen[c] = true
		}
		for _, c := range g.Cards {
			require.False(t, seen[c], "card %d both on board and in deck", c)
			seen[c] = true
		}
		require.LessOrEqual(t, len(g.Cards)+len(g.Deck), DeckSize)
	}
}

func TestDeal_PartialDeck(t *testing.T) {
	g := boardOf([]int{70, 71}, 0, 1, 2, 3, 4, 5, 6, 7, 8)

	placed := g.Deal()
	assert.Equal(t, []PlacedCard{{Position{3, 0}, 70}, {Position{3, 1}, 71}}, placed)
	assert.Empty(t, g.Deck)
}

func TestCompact_MovesExtraColumnIntoGaps(t *testing.T) {
	// five columns with the middle of column 1 and the top of column 2 taken
	g := boardOf(nil, noMatchBoard...)
	g.Cards[Position{4, 0}] = 40
	g.Cards[Position{4, 1}] = 41
	g.Cards[Position{4, 2}] = 42
	delete(g.Cards, Position{1, 1})
	delete(g.Cards, Position{2, 0})

	moves := g.Compact()
	assert.Equal(t, []Move{
		{From: Position{4, 2}, To: Position{1, 1}},
		{From: Position{4, 1}, To: Position{2, 0}},
	}, moves)
	assert.Equal(t, 5, g.Columns())
	assert.Len(t, g.Cards, 13)

	assert.Empty(t, g.Compact(), "second run makes no moves")
}

func TestCompact_ShrinksBackToProtectedGrid(t *testing.T) {
	g := boardOf(nil, noMatchBoard...)
	g.Cards[Position{4, 0}] = 40
	g.Cards[Position{4, 1}] = 41
	g.Cards[Position{4, 2}] = 42
	delete(g.Cards, Position{0, 0})
	delete(g.Cards, Position{1, 2})
	delete(g.Cards, Position{3, 1})

	moves := g.Compact()
	require.Len(t, moves, 3)
	for _, m := range moves {
		assert.GreaterOrEqual(t, m.From.X, g.Rules.Cols, "never moves from the protected grid")
		assert.Less(t, m.To.X, m.From.X)
	}
	assert.Equal(t, 4, g.Columns())
	assert.Len(t, g.Cards, 12)
	assert.Empty(t, g.Compact())
}

func TestCompact_LeavesProtectedGridGaps(t *testing.T) {
	g := boardOf(nil, 0, 1, 2, 3, 4, 5, 6, 7, 8)
	delete(g.Cards, Position{0, 1})

	assert.Empty(t, g.Compact())
	assert.Len(t, g.Cards, 8)
}

func TestClone_IsDeep(t *testing.T) {
	g := boardOf([]int{9}, 0, 1, 2)
	c := g.Clone()
	c.Cards[Position{5, 5}] = 50
	c.Players["zed"] = Status{Score: 3}
	c.Deck[0] = 10

	assert.Len(t, g.Cards, 3)
	assert.NotContains(t, g.Players, "zed")
	assert.Equal(t, []int{9}, g.Deck)
}
