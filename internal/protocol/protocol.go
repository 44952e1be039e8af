// Package protocol defines the commands a client sends to a room, the updates
// a room sends back, and their JSON wire form.
package protocol

import (
	"github.com/DoyleJ11/triples-server/internal/engine"
)

// Command is a player command. The set is closed: Start and Claim.
type Command interface{ isCommand() }

type Start struct{}

func (Start) isCommand() {}

type Claim struct {
	Type  engine.ClaimType
	Cards []int
}

func (Claim) isCommand() {}

const (
	TagStart        = "start"
	TagClaim        = "claim"
	TagEventJoin    = "eventJoin"
	TagEventClaimed = "eventClaimed"
	TagChangeMatch  = "changeMatch"
	TagChangeDeal   = "changeDeal"
	TagChangeMove   = "changeMove"
	TagFull         = "full"
)

// Update is a room-to-client message. Tag is the wire discriminant.
type Update interface {
	isUpdate()
	Tag() string
}

type EventJoin struct {
	Name string
}

type EventClaimed struct {
	Name   string
	Type   engine.ClaimType
	Result engine.Result
	Score  int
}

// ChangeMatch lists the positions emptied by a correct match claim.
type ChangeMatch []engine.Position

type ChangeDeal []engine.PlacedCard

// ChangeMove lists compaction relocations in the order they were made.
type ChangeMove []engine.Move

// Full is an authoritative snapshot. The room hands out copies, so encoders
// may read it from any goroutine.
type Full struct {
	Cols      int
	Rows      int
	MatchSize int
	DeckSize  int
	Cards     map[engine.Position]int
	Players   map[string]engine.Status
}

func (EventJoin) isUpdate()    {}
func (EventClaimed) isUpdate() {}
func (ChangeMatch) isUpdate()  {}
func (ChangeDeal) isUpdate()   {}
func (ChangeMove) isUpdate()   {}
func (Full) isUpdate()         {}

func (EventJoin) Tag() string    { return TagEventJoin }
func (EventClaimed) Tag() string { return TagEventClaimed }
func (ChangeMatch) Tag() string  { return TagChangeMatch }
func (ChangeDeal) Tag() string   { return TagChangeDeal }
func (ChangeMove) Tag() string   { return TagChangeMove }
func (Full) Tag() string         { return TagFull }
