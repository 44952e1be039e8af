package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/DoyleJ11/triples-server/internal/engine"
)

var ErrMalformedFrame = errors.New("malformed frame")
var ErrUnknownCommand = errors.New("unknown command")

type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type claimPayload struct {
	Type  string `json:"type"`
	Cards []int  `json:"cards"`
}

// wirePosition is a [column, row] pair.
type wirePosition [2]int

type wirePlaced struct {
	Position wirePosition `json:"position"`
	Card     int          `json:"card"`
}

type wireMove struct {
	From wirePosition `json:"from"`
	To   wirePosition `json:"to"`
}

type wireStatus struct {
	Present bool `json:"present"`
	Score   int  `json:"score"`
}

type wireFull struct {
	Cols      int                   `json:"cols"`
	Rows      int                   `json:"rows"`
	MatchSize int                   `json:"matchSize"`
	DeckSize  int                   `json:"deckSize"`
	Cards     []wirePlaced          `json:"cards"`
	Players   map[string]wireStatus `json:"players"`
}

type wireClaimed struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Result string `json:"result"`
	Score  int    `json:"score"`
}

// Decode parses one inbound frame. Frames with an unrecognised tag or claim
// type yield ErrUnknownCommand; anything unparseable yields ErrMalformedFrame.
func Decode(data []byte) (Command, error) {
	var m ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	switch m.Type {
	case TagStart:
		return Start{}, nil
	case TagClaim:
		var p claimPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: claim: %v", ErrMalformedFrame, err)
		}
		switch t := engine.ClaimType(p.Type); t {
		case engine.ClaimMatch, engine.ClaimNoMatch:
			return Claim{Type: t, Cards: p.Cards}, nil
		default:
			return nil, fmt.Errorf("%w: claim type %q", ErrUnknownCommand, p.Type)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, m.Type)
	}
}

// Encode renders one outbound frame.
func Encode(u Update) ([]byte, error) {
	var payload any
	switch u := u.(type) {
	case EventJoin:
		payload = struct {
			Name string `json:"name"`
		}{u.Name}
	case EventClaimed:
		payload = wireClaimed{Name: u.Name, Type: string(u.Type), Result: string(u.Result), Score: u.Score}
	case ChangeMatch:
		ps := make([]wirePosition, len(u))
		for i, p := range u {
			ps[i] = toWire(p)
		}
		payload = ps
	case ChangeDeal:
		payload = placedToWire(u)
	case ChangeMove:
		ms := make([]wireMove, len(u))
		for i, m := range u {
			ms[i] = wireMove{From: toWire(m.From), To: toWire(m.To)}
		}
		payload = ms
	case Full:
		payload = fullToWire(u)
	default:
		return nil, fmt.Errorf("encode: unsupported update %T", u)
	}
	return json.Marshal(ServerMessage{Type: u.Tag(), Payload: payload})
}

func toWire(p engine.Position) wirePosition {
	return wirePosition{p.X, p.Y}
}

func placedToWire(cs []engine.PlacedCard) []wirePlaced {
	out := make([]wirePlaced, len(cs))
	for i, c := range cs {
		out[i] = wirePlaced{Position: toWire(c.Position), Card: c.Card}
	}
	return out
}

// fullToWire lists cards in column-major order so snapshots encode stably.
func fullToWire(f Full) wireFull {
	cards := make([]engine.PlacedCard, 0, len(f.Cards))
	for p, c := range f.Cards {
		cards = append(cards, engine.PlacedCard{Position: p, Card: c})
	}
	slices.SortFunc(cards, func(a, b engine.PlacedCard) int {
		if a.Position.X != b.Position.X {
			return a.Position.X - b.Position.X
		}
		return a.Position.Y - b.Position.Y
	})
	players := make(map[string]wireStatus, len(f.Players))
	for name, s := range f.Players {
		players[name] = wireStatus{Present: s.Present, Score: s.Score}
	}
	return wireFull{
		Cols:      f.Cols,
		Rows:      f.Rows,
		MatchSize: f.MatchSize,
		DeckSize:  f.DeckSize,
		Cards:     placedToWire(cards),
		Players:   players,
	}
}
