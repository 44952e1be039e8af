package room

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/triples-server/internal/engine"
	"github.com/DoyleJ11/triples-server/internal/protocol"
)

var ErrClosed = errors.New("room closed")

type Msg interface{ isRoomMsg() }

// Join registers a connection. The room replies with the client id on Reply,
// which must be buffered, then delivers updates on Outbox until it closes it.
type Join struct {
	Name   string
	Outbox chan protocol.Update
	Reply  chan int
}

func (Join) isRoomMsg() {}

type FromClient struct {
	ClientID int
	Cmd      protocol.Command
}

func (FromClient) isRoomMsg() {}

// Leave is sent by a connection's read path when it ends.
type Leave struct{ ClientID int }

func (Leave) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// GetState asks for a View. Reply must be buffered; a reply nobody is ready
// to receive is dropped.
type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// View is a copy of the room state for tests and diagnostics.
type View struct {
	NumClients int
	Present    map[string]int
	Game       *engine.Game
}

// Creator is the first connection's identity and the mode it picked.
type Creator struct {
	Name string
	Mode engine.Mode
}

type Config struct {
	// PresentationDelay paces compaction, deal and round-over broadcasts.
	PresentationDelay time.Duration
	InboxSize         int
	// Seed fixes the shuffle; zero picks a random seed per room.
	Seed uint64
}

type client struct {
	id     int
	name   string
	outbox chan protocol.Update
}

type Room struct {
	key     string
	creator Creator
	rules   engine.Rules
	delay   time.Duration
	rng     *rand.Rand
	logger  *zap.Logger

	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// owned by loop
	nextID  int
	clients map[int]*client
	present map[string]int
	game    *engine.Game
}

func New(parent context.Context, key string, creator Creator, cfg Config, logger *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	size := cfg.InboxSize
	if size <= 0 {
		size = 64
	}

	r := &Room{
		key:     key,
		creator: creator,
		rules:   engine.RulesFor(creator.Mode),
		delay:   cfg.PresentationDelay,
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
		logger:  logger.With(zap.String("room", key)),
		inbox:   make(chan Msg, size),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		clients: make(map[int]*client),
		present: make(map[string]int),
	}

	go r.loop()
	return r
}

func (r *Room) Key() string { return r.key }

func (r *Room) Creator() Creator { return r.creator }

// Inbox exposes the queue so tests and the connection layer can send messages.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Done is closed once the loop has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

// Send enqueues msg, giving up once the room has shut down.
func (r *Room) Send(msg Msg) error {
	if r.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case r.inbox <- msg:
		return nil
	case <-r.ctx.Done():
		return ErrClosed
	}
}

// Connect joins a player and returns the client id the room assigned.
func (r *Room) Connect(ctx context.Context, name string, outbox chan protocol.Update) (int, error) {
	reply := make(chan int, 1)
	if err := r.Send(Join{Name: name, Outbox: outbox, Reply: reply}); err != nil {
		return 0, err
	}
	select {
	case id := <-reply:
		return id, nil
	case <-r.ctx.Done():
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (r *Room) loop() {
	defer close(r.done)
	r.logger.Info("starting room",
		zap.String("creator", r.creator.Name),
		zap.String("mode", string(r.creator.Mode)))

	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.join(msg)

			case Leave:
				r.logger.Info("removing client", zap.Int("client", msg.ClientID))
				r.remove(msg.ClientID)

			case FromClient:
				r.handle(msg)

			case GetState:
				select {
				case msg.Reply <- r.view():
				default:
					r.logger.Warn("dropping state reply")
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) shutdown() {
	for id, c := range r.clients {
		close(c.outbox)
		delete(r.clients, id)
	}
	r.cancel()
}

func (r *Room) join(msg Join) {
	id := r.nextID
	r.nextID++
	msg.Reply <- id

	c := &client{id: id, name: msg.Name, outbox: msg.Outbox}
	r.clients[id] = c
	r.present[msg.Name]++
	if r.game != nil {
		r.game.Add(msg.Name)
	}
	r.logger.Info("player joined", zap.String("player", msg.Name), zap.Int("client", id))

	r.deliver(c, r.full(r.game))
	r.broadcast(protocol.EventJoin{Name: msg.Name}, 0)
}

// remove drops a client from the broadcast set and closes its outbox. The
// name stays in the presence set.
func (r *Room) remove(id int) {
	c, ok := r.clients[id]
	if !ok {
		return
	}
	close(c.outbox)
	delete(r.clients, id)
	r.present[c.name]--
}

func (r *Room) view() View {
	v := View{
		NumClients: len(r.clients),
		Present:    make(map[string]int, len(r.present)),
	}
	for name, n := range r.present {
		v.Present[name] = n
	}
	if r.game != nil {
		v.Game = r.game.Clone()
	}
	return v
}
