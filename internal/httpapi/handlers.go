package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/triples-server/internal/engine"
	"github.com/DoyleJ11/triples-server/internal/hub"
	"github.com/DoyleJ11/triples-server/internal/room"
	"github.com/DoyleJ11/triples-server/internal/ws"
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createRoomRequest struct {
	Name string `json:"name"`
	Mode string `json:"mode"`
}

type createRoomResponse struct {
	Key  string      `json:"key"`
	Mode engine.Mode `json:"mode"`
}

// CreateRoom allocates an unused session key and creates its room.
func CreateRoom(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		mode, err := engine.ParseMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			existing, err := h.Lookup(r.Context(), c)
			if err != nil {
				http.Error(w, "registry unavailable", http.StatusServiceUnavailable)
				return
			}
			if existing == nil {
				code = c
				break
			}
			logger.Debug("collision on code, regenerating", zap.String("code", c))
		}

		creator := room.Creator{Name: ws.PlayerName(req.Name), Mode: mode}
		if _, err := h.Get(r.Context(), code, creator); err != nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createRoomResponse{Key: code, Mode: mode})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
