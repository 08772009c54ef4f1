package server

import (
	"net/http"

	"sketch-relay/internal/config"
	"sketch-relay/internal/game"
	"sketch-relay/internal/monitor"

	"go.uber.org/zap"
)

type Server struct {
	game    *game.Service
	gen     *FalClient
	cfg     config.Config
	log     *zap.SugaredLogger
	metrics *monitor.Metrics
}

func New(svc *game.Service, gen *FalClient, cfg config.Config, log *zap.SugaredLogger, metrics *monitor.Metrics) *Server {
	return &Server{
		game:    svc,
		gen:     gen,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users", s.handleRegister)
	mux.HandleFunc("POST /api/users/login", s.handleLogin)
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("POST /api/rooms/join", s.handleJoinRoom)
	mux.HandleFunc("POST /api/rooms/leave", s.handleLeaveRoom)
	mux.HandleFunc("POST /api/rooms/kick", s.handleKickPlayer)
	mux.HandleFunc("POST /api/rooms/{code}/start", s.handleStartRoom)
	mux.HandleFunc("GET /api/rooms/{id}", s.handlePollRoom)
	mux.HandleFunc("POST /api/rooms/{id}/entries", s.handleSubmitEntry)
	mux.HandleFunc("GET /api/rooms/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/rooms/{code}/qr.png", s.handleJoinQR)
	mux.HandleFunc("POST /api/images", s.handleQueueImage)
	mux.HandleFunc("GET /api/images/{id}", s.handleImageResult)
	return mux
}
