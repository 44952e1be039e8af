package room

import (
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/triples-server/internal/engine"
	"github.com/DoyleJ11/triples-server/internal/protocol"
)

func (r *Room) handle(msg FromClient) {
	c, ok := r.clients[msg.ClientID]
	if !ok {
		// already removed; its later commands are dropped
		r.logger.Debug("command from unknown client", zap.Int("client", msg.ClientID))
		return
	}
	switch cmd := msg.Cmd.(type) {
	case protocol.Start:
		r.start(c)
	case protocol.Claim:
		r.claim(c, cmd)
	default:
		r.logger.Warn("unknown command", zap.Any("command", cmd))
	}
}

func (r *Room) start(c *client) {
	if r.game != nil && !r.game.Over() {
		r.logger.Info("game in progress, ignoring start", zap.String("player", c.name))
		return
	}
	r.logger.Info("starting round", zap.String("player", c.name))

	r.game = engine.NewGame(r.rules, r.rng)
	for name := range r.present {
		r.game.Add(name)
	}
	r.broadcast(r.full(r.game), 0)
	r.broadcastDeal(r.game.Deal(), r.delay)
}

func (r *Room) claim(c *client, cmd protocol.Claim) {
	if r.game == nil {
		r.logger.Info("out of game claim", zap.String("player", c.name), zap.String("type", string(cmd.Type)))
		r.broadcast(protocol.EventClaimed{Name: c.name, Type: cmd.Type, Result: engine.ResultLate}, 0)
		return
	}
	switch cmd.Type {
	case engine.ClaimMatch:
		r.claimMatch(c, cmd)
	case engine.ClaimNoMatch:
		r.claimNoMatch(c, cmd)
	default:
		r.logger.Warn("unknown claim type", zap.String("type", string(cmd.Type)))
	}
}

func (r *Room) claimMatch(c *client, cmd protocol.Claim) {
	out, err := r.game.ClaimMatch(c.name, cmd.Cards)
	if err != nil {
		r.logger.Info("late match claim", zap.String("player", c.name), zap.Error(err))
	}
	if len(out.Removed) > 0 {
		r.broadcast(protocol.ChangeMatch(out.Removed), 0)
	}
	r.broadcast(claimed(c, cmd, out), 0)
	if out.Result != engine.ResultCorrect {
		return
	}

	if r.endIfOver() {
		return
	}
	if moves := r.game.Compact(); len(moves) > 0 {
		r.broadcast(protocol.ChangeMove(moves), r.delay)
	}
	if r.endIfOver() {
		return
	}
	r.broadcastDeal(r.game.Deal(), r.delay)
	r.endIfOver()
}

func (r *Room) claimNoMatch(c *client, cmd protocol.Claim) {
	out, err := r.game.ClaimNoMatch(c.name, cmd.Cards)
	if err != nil {
		r.logger.Info("late nomatch claim", zap.String("player", c.name), zap.Error(err))
	}
	r.broadcastDeal(out.Dealt, 0)
	if out.Result == engine.ResultWrong {
		r.revealCount(out.Matches, cmd.Cards)
	}
	r.broadcast(claimed(c, cmd, out), 0)
	if out.Result == engine.ResultCorrect {
		r.endIfOver()
	}
}

// revealCount would tell clients how many matches a wrong no-match claim
// missed. No update carries it yet, so it is only logged with one example.
func (r *Room) revealCount(n int, board []int) {
	match, _ := engine.FindMatch(board, r.rules.MatchSize)
	r.logger.Info("wrong nomatch claim", zap.Int("matches", n), zap.Ints("example", match))
}

// endIfOver closes the round when its terminal condition holds, sending a
// final snapshot with the scores and an empty board.
func (r *Room) endIfOver() bool {
	if !r.game.Over() {
		return false
	}
	r.logger.Info("game over", zap.Int("players", len(r.game.Players)))
	final := &engine.Game{
		Rules:   r.game.Rules,
		Cards:   map[engine.Position]int{},
		Players: r.game.Players,
	}
	r.game = nil
	r.broadcast(r.full(final), r.delay)
	return true
}

func claimed(c *client, cmd protocol.Claim, out engine.Outcome) protocol.EventClaimed {
	return protocol.EventClaimed{
		Name:   c.name,
		Type:   cmd.Type,
		Result: out.Result,
		Score:  out.Score,
	}
}

// full snapshots g, or the presence set alone when no round is active.
func (r *Room) full(g *engine.Game) protocol.Full {
	f := protocol.Full{
		Cols:      r.rules.Cols,
		Rows:      r.rules.Rows,
		MatchSize: r.rules.MatchSize,
		Cards:     map[engine.Position]int{},
		Players:   map[string]engine.Status{},
	}
	if g == nil {
		for name, n := range r.present {
			f.Players[name] = engine.Status{Present: n > 0}
		}
		return f
	}
	f.Cols = g.Columns()
	f.DeckSize = g.DeckSize()
	for p, card := range g.Cards {
		f.Cards[p] = card
	}
	for name, s := range g.Players {
		s.Present = r.present[name] > 0
		f.Players[name] = s
	}
	return f
}

func (r *Room) broadcastDeal(placed []engine.PlacedCard, after time.Duration) {
	if len(placed) == 0 {
		return
	}
	r.broadcast(protocol.ChangeDeal(placed), after)
}

// broadcast waits out the presentation delay, then hands u to every client.
// A client whose outbox is full is dropped rather than stalling the room.
func (r *Room) broadcast(u protocol.Update, after time.Duration) {
	if after > 0 {
		t := time.NewTimer(after)
		select {
		case <-t.C:
		case <-r.ctx.Done():
			t.Stop()
			return
		}
	}
	for _, c := range r.clients {
		r.deliver(c, u)
	}
}

func (r *Room) deliver(c *client, u protocol.Update) {
	select {
	case c.outbox <- u:
	default:
		r.logger.Warn("dropping slow client", zap.Int("client", c.id), zap.String("player", c.name))
		r.remove(c.id)
	}
}
