package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/triples-server/internal/room"
)

var ErrClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

// EnsureRoom returns the room for Key, creating it with Creator if absent.
type EnsureRoom struct {
	Key     string
	Creator room.Creator // only used if creation happens
	Reply   chan *room.Room
}

type GetRoom struct {
	Key   string
	Reply chan *room.Room
}

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (ShutdownHub) isHubMsg() {}

// Hub is the room registry. Its loop is the only reader and writer of the
// room map, so concurrent first lookups of a key create exactly one room.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	cfg    room.Config
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg room.Config, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Get returns the room for key, creating it on first use.
func (h *Hub) Get(ctx context.Context, key string, creator room.Creator) (*room.Room, error) {
	return h.ask(ctx, func(reply chan *room.Room) HubMsg {
		return EnsureRoom{Key: key, Creator: creator, Reply: reply}
	})
}

// Lookup returns the room for key or nil.
func (h *Hub) Lookup(ctx context.Context, key string) (*room.Room, error) {
	return h.ask(ctx, func(reply chan *room.Room) HubMsg {
		return GetRoom{Key: key, Reply: reply}
	})
}

func (h *Hub) Shutdown() {
	select {
	case h.inbox <- ShutdownHub{}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) ask(ctx context.Context, msg func(chan *room.Room) HubMsg) (*room.Room, error) {
	if h.ctx.Err() != nil {
		return nil, ErrClosed
	}
	reply := make(chan *room.Room, 1)
	select {
	case h.inbox <- msg(reply):
	case <-h.ctx.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case rm := <-reply:
		return rm, nil
	case <-h.ctx.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				if rm := h.rooms[msg.Key]; rm != nil {
					msg.Reply <- rm
					break
				}
				rm := room.New(h.ctx, msg.Key, msg.Creator, h.cfg, h.logger)
				h.rooms[msg.Key] = rm
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[msg.Key] // May be nil

			case ShutdownHub:
				h.logger.Info("shutting down rooms", zap.Int("rooms", len(h.rooms)))
				for _, rm := range h.rooms {
					if err := rm.Send(room.Shutdown{}); err != nil {
						h.logger.Debug("room already closed", zap.String("room", rm.Key()), zap.Error(err))
					}
				}
				clear(h.rooms)
				h.cancel()
				return
			}
		}
	}
}
