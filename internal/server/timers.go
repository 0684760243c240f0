package server

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/charue808/eikogames/internal/game"
)

// phaseTimer is the pending auto-advance for one room and the phase it was
// armed for.
type phaseTimer struct {
	timer     *time.Timer
	phase     game.Phase
	startedAt time.Time
}

func (p *phaseTimer) Stop() bool {
	return p.timer.Stop()
}

// schedulePhaseTimer arms a one-shot timer that advances the room's round
// when its phase clock runs out. It is a no-op unless AUTO_ADVANCE is on.
func (s *Server) schedulePhaseTimer(roomCode string) {
	if !s.cfg.AutoAdvance {
		return
	}
	round, err := s.svc.ActiveRound(context.Background(), roomCode)
	if err != nil {
		log.Printf("phase timer skipped room_code=%s error=%v", roomCode, err)
		return
	}
	s.armPhaseTimer(roomCode, round)
}

// armPhaseTimer replaces the room's timer unless the one already armed is
// for a later phase than round.
func (s *Server) armPhaseTimer(roomCode string, round game.Round) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if s.closed {
		return
	}
	existing, ok := s.timers[roomCode]
	if ok && existing.startedAt.After(round.PhaseStartedAt) {
		return
	}
	if ok {
		existing.Stop()
		delete(s.timers, roomCode)
	}
	if round.Phase == game.PhaseResults {
		return
	}
	deadline := round.PhaseStartedAt.Add(s.svc.Durations().Limit(round.Phase))
	delay := deadline.Sub(s.svc.Now())
	if delay < 0 {
		delay = 0
	}
	phase := round.Phase
	s.timers[roomCode] = &phaseTimer{
		timer: time.AfterFunc(delay, func() {
			s.autoAdvancePhase(roomCode, phase)
		}),
		phase:     phase,
		startedAt: round.PhaseStartedAt,
	}
}

func (s *Server) cancelPhaseTimer(roomCode string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[roomCode]; ok {
		timer.Stop()
		delete(s.timers, roomCode)
	}
}

// autoAdvancePhase goes through the same conditional advance as the HTTP
// endpoint, so a client that got there first just makes this a no-op.
func (s *Server) autoAdvancePhase(roomCode string, expectedPhase game.Phase) {
	ctx := context.Background()
	result, err := s.svc.Advance(ctx, roomCode)
	if err != nil {
		// Woken early or for a phase that already moved on: re-arm from
		// the round as it is now.
		if errors.Is(err, game.ErrPhaseNotExpired) {
			s.schedulePhaseTimer(roomCode)
			return
		}
		log.Printf("auto advance skipped room_code=%s phase=%s error=%v", roomCode, expectedPhase, err)
		return
	}
	if !result.Committed {
		return
	}
	log.Printf("auto advanced room_code=%s from=%s to=%s", roomCode, result.PreviousPhase, result.NewPhase)
	recordTransition(result.PreviousPhase, result.NewPhase)
	s.broadcastRoomUpdate(ctx, roomCode, "phase_advanced")
	s.schedulePhaseTimer(roomCode)
}
