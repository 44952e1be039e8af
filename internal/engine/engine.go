package engine

import (
	"errors"
	"fmt"
)

var ErrRoundOver = errors.New("round is over")
var ErrCardNotOnBoard = errors.New("card not on board")
var ErrTooFewCards = errors.New("too few cards claimed")
var ErrAlreadyClaimed = errors.New("no match already claimed")
var ErrBoardMismatch = errors.New("claimed cards differ from board")
var ErrUnknownMode = errors.New("unknown mode")

type Mode string

const (
	ModeTriples Mode = "triples"
	ModeQuads   Mode = "quads"
)

// ParseMode maps a wire or query value to a Mode. The empty string is triples.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeTriples:
		return ModeTriples, nil
	case ModeQuads:
		return ModeQuads, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Rules fix the match size and the protected grid shape of a room.
type Rules struct {
	MatchSize int
	Cols      int
	Rows      int
}

func RulesFor(m Mode) Rules {
	if m == ModeQuads {
		return Rules{MatchSize: 4, Cols: 3, Rows: 3}
	}
	return Rules{MatchSize: 3, Cols: 4, Rows: 3}
}

// MinNoMatchCards is the fewest cards a no-match claim may list: a full
// default grid.
func (r Rules) MinNoMatchCards() int {
	return r.Cols * r.Rows
}

type ClaimType string

const (
	ClaimMatch   ClaimType = "match"
	ClaimNoMatch ClaimType = "nomatch"
)

type Result string

const (
	ResultCorrect Result = "correct"
	ResultWrong   Result = "wrong"
	ResultLate    Result = "late"
)

// Position is a (column, row) grid cell.
type Position struct {
	X int
	Y int
}

type Status struct {
	Present bool
	Score   int
}

type PlacedCard struct {
	Position Position
	Card     int
}

type Move struct {
	From Position
	To   Position
}

// Outcome is the result of a claim. Removed is set on a correct match claim,
// Dealt on a correct no-match claim, Matches on a wrong no-match claim.
type Outcome struct {
	Result  Result
	Score   int
	Removed []Position
	Dealt   []PlacedCard
	Matches int
}
