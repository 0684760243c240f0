package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charue808/eikogames/internal/game"
)

var (
	answerMessages = bindMessages{
		"PlayerID": {"required": "missing required fields"},
	}
	voteMessages = bindMessages{
		"PlayerID": {"required": "missing playerId or answerId"},
		"AnswerID": {"required": "missing playerId or answerId"},
	}
)

func (s *Server) handleCreateRoom(c *gin.Context) {
	room, err := s.svc.CreateRoom(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomCode": room.RoomCode})
}

func (s *Server) handleJoin(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	var req joinRequest
	if !bindJSON(c, &req, nil, "player name is required") {
		return
	}
	ctx := c.Request.Context()
	result, err := s.svc.Join(ctx, uri.RoomCode, req.PlayerName)
	if err != nil {
		writeError(c, err)
		return
	}
	code := game.NormalizeRoomCode(uri.RoomCode)
	if result.AutoStarted {
		recordTransition(game.PhaseNone, game.PhaseAnswering)
		s.schedulePhaseTimer(code)
		s.broadcastRoomUpdate(ctx, code, "game_started")
	} else {
		s.broadcastRoomUpdate(ctx, code, "player_joined")
	}
	c.JSON(http.StatusOK, gin.H{
		"playerId":   result.PlayerID,
		"playerName": result.PlayerName,
	})
}

func (s *Server) handlePlayers(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	players, err := s.svc.Players(c.Request.Context(), uri.RoomCode)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]playerResponse, 0, len(players))
	for _, player := range players {
		out = append(out, playerResponse{
			ID:          player.ID,
			DisplayName: player.DisplayName,
			JoinOrder:   player.JoinOrder,
			IsConnected: player.IsConnected,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleState(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	var query playerQuery
	if !bindQuery(c, &query) {
		return
	}
	state, err := s.svc.State(c.Request.Context(), uri.RoomCode, query.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       state.Status,
		"currentRound": state.CurrentRound,
		"playerCount":  state.PlayerCount,
	})
}

func (s *Server) handleStart(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	ctx := c.Request.Context()
	result, err := s.svc.Start(ctx, uri.RoomCode)
	if err != nil {
		writeError(c, err)
		return
	}
	code := game.NormalizeRoomCode(uri.RoomCode)
	recordTransition(game.PhaseNone, result.Phase)
	s.schedulePhaseTimer(code)
	s.broadcastRoomUpdate(ctx, code, "game_started")
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"roundNumber": result.RoundNumber,
		"phase":       result.Phase,
	})
}

func (s *Server) handleAdvancePhase(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	ctx := c.Request.Context()
	result, err := s.svc.Advance(ctx, uri.RoomCode)
	if err != nil {
		writeError(c, err)
		return
	}
	if result.Committed {
		code := game.NormalizeRoomCode(uri.RoomCode)
		recordTransition(result.PreviousPhase, result.NewPhase)
		s.schedulePhaseTimer(code)
		s.broadcastRoomUpdate(ctx, code, "phase_advanced")
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"previousPhase":  result.PreviousPhase,
		"newPhase":       result.NewPhase,
		"phaseStartedAt": result.PhaseStartedAt,
	})
}

func (s *Server) handleCurrentPrompt(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	snapshot, err := s.svc.CurrentPrompt(c.Request.Context(), uri.RoomCode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, promptResponse{
		PromptID:       snapshot.PromptID,
		Topic1:         snapshot.Topic1,
		Topic2:         snapshot.Topic2,
		RoundNumber:    snapshot.RoundNumber,
		Phase:          string(snapshot.Phase),
		TimeRemaining:  snapshot.TimeRemaining,
		SubmittedCount: snapshot.SubmittedCount,
	})
}

func (s *Server) handleSubmitAnswer(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	var req submitAnswerRequest
	if !bindJSON(c, &req, answerMessages, "missing required fields") {
		return
	}
	ctx := c.Request.Context()
	if err := s.svc.SubmitAnswer(ctx, uri.RoomCode, req.PlayerID, req.AnswerText); err != nil {
		writeError(c, err)
		return
	}
	s.broadcastRoomUpdate(ctx, game.NormalizeRoomCode(uri.RoomCode), "answer_submitted")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleAnswers(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	var query playerQuery
	if !bindQuery(c, &query) {
		return
	}
	list, err := s.svc.Votable(c.Request.Context(), uri.RoomCode, query.PlayerID)
	if err != nil {
		writeError(c, err)
		return
	}
	answers := make([]votableAnswerResponse, 0, len(list.Answers))
	for _, answer := range list.Answers {
		answers = append(answers, votableAnswerResponse{
			ID:                answer.ID,
			Text:              answer.Text,
			AuthorDisplayName: answer.AuthorDisplayName,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"answers":  answers,
		"hasVoted": list.HasVoted,
	})
}

func (s *Server) handleVote(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req, voteMessages, "missing playerId or answerId") {
		return
	}
	ctx := c.Request.Context()
	if err := s.svc.CastVote(ctx, uri.RoomCode, req.PlayerID, req.AnswerID); err != nil {
		writeError(c, err)
		return
	}
	s.broadcastRoomUpdate(ctx, game.NormalizeRoomCode(uri.RoomCode), "vote_cast")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleResults(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	results, err := s.svc.Results(c.Request.Context(), uri.RoomCode)
	if err != nil {
		writeError(c, err)
		return
	}
	answers := make([]talliedAnswerResponse, 0, len(results.Answers))
	for _, answer := range results.Answers {
		answers = append(answers, talliedAnswerResponse{
			ID:                answer.ID,
			Text:              answer.Text,
			AuthorDisplayName: answer.AuthorDisplayName,
			Votes:             answer.Votes,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"roundNumber": results.RoundNumber,
		"phase":       results.Phase,
		"answers":     answers,
	})
}

func (s *Server) handleEvents(c *gin.Context) {
	var uri roomURI
	if !bindURI(c, &uri) {
		return
	}
	events, err := s.svc.Events(c.Request.Context(), uri.RoomCode)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, eventResponse{
			ID:          event.ID,
			Type:        event.Type,
			RoundNumber: event.RoundNumber,
			PlayerID:    event.PlayerID,
			Payload:     event.Payload,
			CreatedAt:   event.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}
