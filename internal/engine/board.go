package engine

// Deal fills the empty cells of the protected grid from the front of the
// deck, column by column.
func (g *Game) Deal() []PlacedCard {
	var placed []PlacedCard
	for x := 0; x < g.Rules.Cols; x++ {
		for y := 0; y < g.Rules.Rows; y++ {
			p := Position{X: x, Y: y}
			if !g.empty(p) || len(g.Deck) == 0 {
				continue
			}
			placed = append(placed, g.place(p))
		}
	}
	g.ClaimedNoMatch = false
	return placed
}

// DealMore appends one column past the current ones and deals into it.
func (g *Game) DealMore() []PlacedCard {
	var placed []PlacedCard
	x := g.Columns()
	for y := 0; y < g.Rules.Rows && len(g.Deck) > 0; y++ {
		placed = append(placed, g.place(Position{X: x, Y: y}))
	}
	g.ClaimedNoMatch = false
	return placed
}

func (g *Game) place(p Position) PlacedCard {
	c := g.Deck[0]
	g.Deck = g.Deck[1:]
	g.Cards[p] = c
	return PlacedCard{Position: p, Card: c}
}

// Compact moves cards from columns beyond the protected grid into gaps nearer
// the start, scanning column-major. The low cursor skips occupied cells, the
// high cursor skips empty ones; a card only moves to a strictly lower column.
func (g *Game) Compact() []Move {
	var (
		rows  = g.Rules.Rows
		keep  = g.Rules.Cols
		cols  = g.Columns()
		at    = func(i int) Position { return Position{X: i / rows, Y: i % rows} }
		lo    = 0
		hi    = cols*rows - 1
		moves []Move
	)
	for {
		// cell cols*rows lies past the last column and is always empty
		for !g.empty(at(lo)) {
			lo++
		}
		for g.empty(at(hi)) && at(hi).X > at(lo).X && at(hi).X >= keep {
			hi--
		}
		l, h := at(lo), at(hi)
		if g.empty(h) || h.X <= l.X || h.X < keep {
			break
		}
		g.Cards[l] = g.Cards[h]
		delete(g.Cards, h)
		moves = append(moves, Move{From: h, To: l})
	}
	return moves
}
