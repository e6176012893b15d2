package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/beatbrawl/beatbrawl-backend/internal/hub"
	"github.com/beatbrawl/beatbrawl-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.SugaredLogger, originPatterns []string) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", CreateRoom(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log, originPatterns))
	return r
}
