package server

import "time"

type roomURI struct {
	RoomCode string `uri:"roomCode" binding:"required"`
}

type playerQuery struct {
	PlayerID string `form:"playerId"`
}

type joinRequest struct {
	PlayerName string `json:"playerName" binding:"name"`
}

type submitAnswerRequest struct {
	PlayerID   string `json:"playerId" binding:"required"`
	AnswerText string `json:"answerText" binding:"answer"`
}

type voteRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	AnswerID string `json:"answerId" binding:"required"`
}

type playerResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	JoinOrder   int    `json:"joinOrder"`
	IsConnected bool   `json:"isConnected"`
}

type promptResponse struct {
	PromptID       uint   `json:"promptId"`
	Topic1         string `json:"topic1"`
	Topic2         string `json:"topic2"`
	RoundNumber    int    `json:"roundNumber"`
	Phase          string `json:"phase"`
	TimeRemaining  int    `json:"timeRemaining"`
	SubmittedCount int    `json:"submittedCount"`
}

type votableAnswerResponse struct {
	ID                string `json:"id"`
	Text              string `json:"text"`
	AuthorDisplayName string `json:"authorDisplayName"`
}

type talliedAnswerResponse struct {
	ID                string `json:"id"`
	Text              string `json:"text"`
	AuthorDisplayName string `json:"authorDisplayName"`
	Votes             int    `json:"votes"`
}

type eventResponse struct {
	ID          uint      `json:"id"`
	Type        string    `json:"type"`
	RoundNumber int       `json:"roundNumber"`
	PlayerID    string    `json:"playerId,omitempty"`
	Payload     any       `json:"payload"`
	CreatedAt   time.Time `json:"createdAt"`
}

type roomUpdateMessage struct {
	Type         string `json:"type"`
	RoomCode     string `json:"roomCode"`
	Reason       string `json:"reason,omitempty"`
	Status       string `json:"status"`
	CurrentRound int    `json:"currentRound"`
	PlayerCount  int    `json:"playerCount"`
}
