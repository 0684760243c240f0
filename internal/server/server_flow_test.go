package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/charue808/eikogames/internal/config"
)

func TestCreateRoom(t *testing.T) {
	ts, _ := newTestAPI(t, config.Default())
	code := createRoom(t, ts)
	if len(code) != 4 || strings.ToUpper(code) != code {
		t.Fatalf("expected 4 character upper-case code, got %q", code)
	}
}

func TestJoinAutoStartsFullRoom(t *testing.T) {
	ts, _ := newTestAPI(t, config.Default())
	code := createRoom(t, ts)
	for _, name := range []string{"Ada", "Grace", "Linus", "Ken"} {
		joinPlayer(t, ts, code, name)
	}

	state := expectStatus(t, doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+"/state", nil), http.StatusOK)
	if state["status"] != "playing" || state["currentRound"] != float64(1) || state["playerCount"] != float64(4) {
		t.Fatalf("expected playing round 1 with 4 players, got %v", state)
	}

	resp := doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/join", map[string]string{"playerName": "Late"})
	expectError(t, resp, http.StatusBadRequest, "game is full (4/4 players)")

	resp = doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/start", nil)
	expectError(t, resp, http.StatusConflict, "game has already started")

	prompt := expectStatus(t, doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+"/current-prompt", nil), http.StatusOK)
	if prompt["phase"] != "answering" || prompt["timeRemaining"] != float64(60) {
		t.Fatalf("expected fresh answering phase, got %v", prompt)
	}
}

func TestJoinValidation(t *testing.T) {
	ts, _ := newTestAPI(t, config.Default())
	code := createRoom(t, ts)

	resp := doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/join", map[string]string{"playerName": "   "})
	expectError(t, resp, http.StatusBadRequest, "player name is required")

	resp = doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/join", map[string]string{"playerName": strings.Repeat("n", 21)})
	expectError(t, resp, http.StatusBadRequest, "player name must be 20 characters or less")

	resp = doRequest(t, ts, http.MethodPost, "/api/overlap/ZZZZ/join", map[string]string{"playerName": "Ada"})
	expectError(t, resp, http.StatusNotFound, "game not found")

	id := joinPlayer(t, ts, strings.ToLower(code), "  Ada  ")
	players := doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+"/players", nil)
	var list []map[string]any
	if err := json.NewDecoder(players.Body).Decode(&list); err != nil {
		t.Fatalf("decode players: %v", err)
	}
	if len(list) != 1 || list[0]["id"] != id || list[0]["displayName"] != "Ada" || list[0]["joinOrder"] != float64(1) {
		t.Fatalf("unexpected players: %v", list)
	}
}

func TestStateRejectsForeignPlayer(t *testing.T) {
	ts, _ := newTestAPI(t, config.Default())
	code := createRoom(t, ts)
	other := createRoom(t, ts)
	stranger := joinPlayer(t, ts, other, "Stranger")

	resp := doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+"/state?playerId="+stranger, nil)
	expectError(t, resp, http.StatusNotFound, "player not found")
}

func TestStartRequiresPlayers(t *testing.T) {
	ts, _ := newTestAPI(t, config.Default())
	code := createRoom(t, ts)
	resp := doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/start", nil)
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestAdvancePhaseTiming(t *testing.T) {
	ts, clock := newTestAPI(t, config.Default())
	code := createRoom(t, ts)
	id := joinPlayer(t, ts, code, "Solo")
	startRoom(t, ts, code)
	submitAnswer(t, ts, code, id, "sand")

	clock.Advance(20 * time.Second)
	resp := doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/advance-phase", nil)
	body := expectError(t, resp, http.StatusBadRequest, "phase time not elapsed yet")
	if body["timeRemaining"] != float64(40) {
		t.Fatalf("expected 40s remaining, got %v", body["timeRemaining"])
	}

	clock.Advance(40 * time.Second)
	body = expectStatus(t, doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/advance-phase", nil), http.StatusOK)
	if body["previousPhase"] != "answering" || body["newPhase"] != "results" || body["success"] != true {
		t.Fatalf("expected answering -> results, got %v", body)
	}
	if _, err := time.Parse(time.RFC3339Nano, body["phaseStartedAt"].(string)); err != nil {
		t.Fatalf("expected RFC3339 phaseStartedAt, got %v", body["phaseStartedAt"])
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/advance-phase", nil)
	body = expectError(t, resp, http.StatusBadRequest, "already in results phase")
	if body["phase"] != "results" {
		t.Fatalf("expected phase results in body, got %v", body["phase"])
	}
}

func TestRoundOverHTTP(t *testing.T) {
	ts, clock := newTestAPI(t, config.Default())
	code := createRoom(t, ts)
	p1 := joinPlayer(t, ts, code, "P1")
	p2 := joinPlayer(t, ts, code, "P2")
	startRoom(t, ts, code)

	resp := doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/submit-answer", map[string]string{"answerText": "x"})
	expectError(t, resp, http.StatusBadRequest, "missing required fields")
	resp = doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/submit-answer", map[string]string{
		"playerId":   p1,
		"answerText": strings.Repeat("a", 51),
	})
	expectError(t, resp, http.StatusBadRequest, "answer too long (max 50 characters)")

	submitAnswer(t, ts, code, p1, "sunscreen")
	submitAnswer(t, ts, code, p2, "lava")
	prompt := expectStatus(t, doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+"/current-prompt", nil), http.StatusOK)
	if prompt["submittedCount"] != float64(2) {
		t.Fatalf("expected 2 submitted, got %v", prompt["submittedCount"])
	}

	clock.Advance(60 * time.Second)
	body := expectStatus(t, doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/advance-phase", nil), http.StatusOK)
	if body["newPhase"] != "voting" {
		t.Fatalf("expected voting, got %v", body["newPhase"])
	}

	listing := expectStatus(t, doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+"/answers?playerId="+p1, nil), http.StatusOK)
	answers := listing["answers"].([]any)
	if len(answers) != 1 || listing["hasVoted"] != false {
		t.Fatalf("expected only P2's answer, got %v", listing)
	}
	target := answers[0].(map[string]any)
	if target["text"] != "lava" || target["authorDisplayName"] != "P2" {
		t.Fatalf("unexpected votable answer: %v", target)
	}
	answerID := target["id"].(string)

	vote := func(playerID string) *http.Response {
		return doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/vote", map[string]string{
			"playerId": playerID,
			"answerId": answerID,
		})
	}
	expectStatus(t, vote(p1), http.StatusOK)
	expectError(t, vote(p1), http.StatusBadRequest, "already voted")
	expectError(t, vote(p2), http.StatusBadRequest, "cannot vote for your own answer")

	resp = doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+"/results", nil)
	expectStatus(t, resp, http.StatusBadRequest)

	clock.Advance(30 * time.Second)
	expectStatus(t, doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/advance-phase", nil), http.StatusOK)
	results := expectStatus(t, doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+"/results", nil), http.StatusOK)
	tallied := results["answers"].([]any)
	top := tallied[0].(map[string]any)
	if top["id"] != answerID || top["votes"] != float64(1) {
		t.Fatalf("expected voted answer on top, got %v", top)
	}

	events := doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+"/events", nil)
	var log []map[string]any
	if err := json.NewDecoder(events.Body).Decode(&log); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(log) == 0 || log[0]["type"] != "room_created" {
		t.Fatalf("expected event log starting with room_created, got %v", log)
	}
}

func TestVoteValidation(t *testing.T) {
	ts, _ := newTestAPI(t, config.Default())
	code := createRoom(t, ts)
	p1 := joinPlayer(t, ts, code, "P1")
	startRoom(t, ts, code)

	resp := doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/vote", map[string]string{"playerId": p1})
	expectError(t, resp, http.StatusBadRequest, "missing playerId or answerId")

	resp = doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/vote", map[string]string{"playerId": p1, "answerId": "nope"})
	expectError(t, resp, http.StatusBadRequest, "wrong phase: not in voting phase")
}

func TestLobbyEndpointsRequirePlayingGame(t *testing.T) {
	ts, _ := newTestAPI(t, config.Default())
	code := createRoom(t, ts)
	for _, path := range []string{"/current-prompt", "/answers", "/results"} {
		resp := doRequest(t, ts, http.MethodGet, "/api/overlap/"+code+path, nil)
		expectError(t, resp, http.StatusBadRequest, "game not started")
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/overlap/"+code+"/advance-phase", nil)
	expectError(t, resp, http.StatusBadRequest, "game not started")
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestAPI(t, config.Default())
	body := expectStatus(t, doRequest(t, ts, http.MethodGet, "/healthz", nil), http.StatusOK)
	if body["status"] != "ok" {
		t.Fatalf("expected ok, got %v", body)
	}
}
