package game

import "time"

type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type Phase string

const (
	PhaseNone      Phase = ""
	PhaseAnswering Phase = "answering"
	PhaseVoting    Phase = "voting"
	PhaseResults   Phase = "results"
)

const (
	MaxPlayers      = 4
	MaxNameLength   = 20
	MaxAnswerLength = 50
	RoomCodeLength  = 4
)

// Game is the room row. CurrentPhase and PhaseStartedAt mirror the active
// round and are only meaningful while Status is playing.
type Game struct {
	ID             uint
	RoomCode       string
	Status         Status
	CurrentRound   int
	CurrentPhase   Phase
	PhaseStartedAt time.Time
	CreatedAt      time.Time
}

type Player struct {
	ID          string
	GameID      uint
	DisplayName string
	JoinOrder   int
	IsConnected bool
}

type Round struct {
	GameID         uint
	Number         int
	PromptID       uint
	Phase          Phase
	PhaseStartedAt time.Time
}

type Answer struct {
	ID          string
	GameID      uint
	RoundNumber int
	PlayerID    string
	Text        string
}

type Vote struct {
	GameID      uint
	RoundNumber int
	VoterID     string
	AnswerID    string
}

type Prompt struct {
	ID     uint
	Topic1 string
	Topic2 string
}

type Event struct {
	ID          uint
	GameID      uint
	RoundNumber int
	PlayerID    string
	Type        string
	Payload     EventPayload
	CreatedAt   time.Time
}

type EventPayload struct {
	RoomCode      string `json:"room_code,omitempty"`
	PlayerName    string `json:"player,omitempty"`
	PreviousPhase Phase  `json:"previous_phase,omitempty"`
	Phase         Phase  `json:"phase,omitempty"`
	PromptID      uint   `json:"prompt_id,omitempty"`
	AnswerID      string `json:"answer_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Count         int    `json:"count,omitempty"`
}

const (
	eventRoomCreated     = "room_created"
	eventPlayerJoined    = "player_joined"
	eventGameStarted     = "game_started"
	eventPhaseAdvanced   = "phase_advanced"
	eventAnswerSubmitted = "answer_submitted"
	eventVoteCast        = "vote_cast"
)

type JoinResult struct {
	PlayerID    string
	PlayerName  string
	AutoStarted bool
	Round       *Round
}

type StartResult struct {
	RoundNumber    int
	Phase          Phase
	PhaseStartedAt time.Time
}

type AdvanceResult struct {
	PreviousPhase  Phase
	NewPhase       Phase
	PhaseStartedAt time.Time
	// Committed is false when a concurrent request already moved the round
	// and this result reflects the re-read state.
	Committed bool
}

type PromptSnapshot struct {
	PromptID       uint
	Topic1         string
	Topic2         string
	RoundNumber    int
	Phase          Phase
	TimeRemaining  int
	SubmittedCount int
}

type RoomState struct {
	Status       Status
	CurrentRound int
	PlayerCount  int
}

type VotableAnswer struct {
	ID                string
	Text              string
	AuthorDisplayName string
}

type VotableList struct {
	Answers  []VotableAnswer
	HasVoted bool
}

type TalliedAnswer struct {
	ID                string
	Text              string
	AuthorDisplayName string
	Votes             int
}

type RoundResults struct {
	RoundNumber int
	Phase       Phase
	Answers     []TalliedAnswer
}
