package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/DoyleJ11/triples-server/internal/engine"
	"github.com/DoyleJ11/triples-server/internal/hub"
	"github.com/DoyleJ11/triples-server/internal/protocol"
	"github.com/DoyleJ11/triples-server/internal/room"
)

const (
	maxNameRunes        = 32
	defaultWriteTimeout = 3 * time.Second
)

type Options struct {
	OutboxSize     int
	WriteTimeout   time.Duration
	OriginPatterns []string
}

// Handler joins the connection to the room named by ?room=, creating it in
// ?mode= on first use. ?name= is the player's presence key.
func Handler(h *hub.Hub, opts Options, logger *zap.Logger) http.HandlerFunc {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		key := q.Get("room")
		if key == "" {
			http.Error(w, "missing room", http.StatusBadRequest)
			return
		}
		name := PlayerName(q.Get("name"))
		if name == "" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}
		mode, err := engine.ParseMode(q.Get("mode"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// the room is only created once the upgrade has succeeded
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", zap.String("room", key), zap.Error(err))
			return
		}
		defer conn.CloseNow()

		rm, err := h.Get(r.Context(), key, room.Creator{Name: name, Mode: mode})
		if err != nil {
			logger.Info("room unavailable", zap.String("room", key), zap.Error(err))
			conn.Close(websocket.StatusTryAgainLater, "room unavailable")
			return
		}

		s := &session{
			conn:         conn,
			room:         rm,
			name:         name,
			writeTimeout: opts.WriteTimeout,
			logger:       logger.With(zap.String("room", rm.Key()), zap.String("player", name)),
		}
		s.serve(r.Context(), max(opts.OutboxSize, 1))
	}
}

// PlayerName trims and NFC-normalizes a display name so equal names share one
// presence entry.
func PlayerName(raw string) string {
	name := norm.NFC.String(strings.TrimSpace(raw))
	if utf8.RuneCountInString(name) > maxNameRunes {
		name = string([]rune(name)[:maxNameRunes])
	}
	return name
}

type session struct {
	conn         *websocket.Conn
	room         *room.Room
	name         string
	writeTimeout time.Duration
	logger       *zap.Logger
}

func (s *session) serve(ctx context.Context, outboxSize int) {
	out := make(chan protocol.Update, outboxSize)
	id, err := s.room.Connect(ctx, s.name, out)
	if err != nil {
		s.logger.Info("connect failed", zap.Error(err))
		s.conn.Close(websocket.StatusGoingAway, "room closed")
		return
	}
	s.logger = s.logger.With(zap.Int("client", id))

	// Writer goroutine
	written := make(chan struct{})
	go func() {
		defer close(written)
		s.writeLoop(ctx, out)
	}()

	s.readLoop(ctx, id)
	if err := s.room.Send(room.Leave{ClientID: id}); err != nil {
		s.logger.Debug("leave after room closed", zap.Error(err))
	}
	<-written
	s.logger.Info("left room")
}

// writeLoop drains out until the room closes it. After a failed write the
// connection is closed but out is still drained.
func (s *session) writeLoop(ctx context.Context, out <-chan protocol.Update) {
	failed := false
	for u := range out {
		if failed {
			continue
		}
		payload, err := protocol.Encode(u)
		if err != nil {
			s.logger.Error("encode update", zap.String("type", u.Tag()), zap.Error(err))
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
		err = s.conn.Write(wctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			s.logger.Info("write failed", zap.Error(err))
			failed = true
			s.conn.CloseNow()
		}
	}
	if !failed {
		s.conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

// readLoop forwards decoded commands until the connection fails, closes, or
// sends a frame that cannot be parsed.
func (s *session) readLoop(ctx context.Context, id int) {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			// Treat clean close/going-away as normal:
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				s.logger.Debug("connection closed")
			default:
				s.logger.Info("conn err", zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			s.logger.Debug("ignoring message type", zap.Int("type", int(typ)))
			continue
		}

		cmd, err := protocol.Decode(data)
		if errors.Is(err, protocol.ErrUnknownCommand) {
			s.logger.Warn("ignoring command", zap.Error(err))
			continue
		}
		if err != nil {
			s.logger.Warn("decode err", zap.Error(err))
			return
		}
		if err := s.room.Send(room.FromClient{ClientID: id, Cmd: cmd}); err != nil {
			return
		}
	}
}
