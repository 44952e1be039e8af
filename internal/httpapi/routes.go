package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/triples-server/internal/hub"
	"github.com/DoyleJ11/triples-server/internal/ws"
)

func SetupRoutes(h *hub.Hub, opts ws.Options, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// The upgrade route stays off the logging middleware so the response
	// writer handed to websocket.Accept is the server's own.
	r.Get("/ws", ws.Handler(h, opts, logger))

	r.Group(func(r chi.Router) {
		r.Use(requestLogger(logger))
		r.Post("/rooms", CreateRoom(h, logger))
		r.Get("/healthz", Healthz)
	})
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
