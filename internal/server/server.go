package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charue808/eikogames/internal/config"
	"github.com/charue808/eikogames/internal/game"
)

type Server struct {
	svc     *game.Service
	cfg     config.Config
	ws      *wsHub
	limiter *rateLimiter

	timersMu sync.Mutex
	timers   map[string]*phaseTimer
	closed   bool
}

func New(svc *game.Service, cfg config.Config) *Server {
	if svc == nil {
		svc = game.NewService(game.NewMemoryStore(game.DefaultPrompts()...), game.WithDurations(durationsFromConfig(cfg)))
	}
	return &Server{
		svc:     svc,
		cfg:     cfg,
		ws:      newWSHub(),
		limiter: newRateLimiter(cfg),
		timers:  make(map[string]*phaseTimer),
	}
}

func durationsFromConfig(cfg config.Config) game.Durations {
	return game.Durations{
		Answering: time.Duration(cfg.AnswerDurationSeconds) * time.Second,
		Voting:    time.Duration(cfg.VoteDurationSeconds) * time.Second,
	}
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	router := gin.New()
	router.Use(gin.Recovery(), observeRequests())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/overlap/:roomCode", s.handleWebsocket)

	// Clients poll the reads every second; only writes are rate limited.
	api := router.Group("/api/overlap")
	api.GET("/:roomCode/players", s.handlePlayers)
	api.GET("/:roomCode/state", s.handleState)
	api.GET("/:roomCode/current-prompt", s.handleCurrentPrompt)
	api.GET("/:roomCode/answers", s.handleAnswers)
	api.GET("/:roomCode/results", s.handleResults)
	api.GET("/:roomCode/events", s.handleEvents)

	writes := api.Group("", s.limiter.Middleware())
	writes.POST("/create", s.handleCreateRoom)
	writes.POST("/:roomCode/join", s.handleJoin)
	writes.POST("/:roomCode/start", s.handleStart)
	writes.POST("/:roomCode/advance-phase", s.handleAdvancePhase)
	writes.POST("/:roomCode/submit-answer", s.handleSubmitAnswer)
	writes.POST("/:roomCode/vote", s.handleVote)
	return router
}

// Close stops pending phase timers and releases the rate limiter.
func (s *Server) Close() {
	s.timersMu.Lock()
	s.closed = true
	for code, timer := range s.timers {
		timer.Stop()
		delete(s.timers, code)
	}
	s.timersMu.Unlock()
	if err := s.limiter.Close(); err != nil {
		log.Printf("rate limiter close failed error=%v", err)
	}
}

// broadcastRoomUpdate tells feed subscribers that something in the room
// changed. Clients re-fetch over HTTP.
func (s *Server) broadcastRoomUpdate(ctx context.Context, roomCode, reason string) {
	if s.ws == nil {
		return
	}
	state, err := s.svc.State(ctx, roomCode, "")
	if err != nil {
		log.Printf("room update skipped room_code=%s error=%v", roomCode, err)
		return
	}
	s.ws.Broadcast(roomCode, roomUpdate(roomCode, reason, state))
}

func roomUpdate(roomCode, reason string, state game.RoomState) roomUpdateMessage {
	return roomUpdateMessage{
		Type:         "room_update",
		RoomCode:     roomCode,
		Reason:       reason,
		Status:       string(state.Status),
		CurrentRound: state.CurrentRound,
		PlayerCount:  state.PlayerCount,
	}
}
