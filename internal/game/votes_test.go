package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func votingRoom(t *testing.T, svc *Service, clock *fakeClock, names ...string) (string, []string) {
	t.Helper()
	code, ids := startedRoom(t, svc, names...)
	for i, id := range ids {
		submit(t, svc, code, id, names[i]+" answer")
	}
	clock.Advance(60 * time.Second)
	if result := advance(t, svc, code); result.NewPhase != PhaseVoting {
		t.Fatalf("expected voting, got %s", result.NewPhase)
	}
	return code, ids
}

func answerOf(t *testing.T, store *MemoryStore, code, playerID string) string {
	t.Helper()
	game := loadGame(t, store, code)
	answers, err := store.ListAnswers(context.Background(), game.ID, game.CurrentRound)
	if err != nil {
		t.Fatalf("list answers: %v", err)
	}
	for _, answer := range answers {
		if answer.PlayerID == playerID {
			return answer.ID
		}
	}
	t.Fatalf("no answer for player %s", playerID)
	return ""
}

func TestVotingScenario(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()
	code, ids := votingRoom(t, svc, clock, "P1", "P2")
	p2Answer := answerOf(t, store, code, ids[1])

	if err := svc.CastVote(ctx, code, ids[0], p2Answer); err != nil {
		t.Fatalf("expected vote to succeed, got %v", err)
	}
	if err := svc.CastVote(ctx, code, ids[0], p2Answer); !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	if err := svc.CastVote(ctx, code, ids[1], p2Answer); !errors.Is(err, ErrSelfVote) {
		t.Fatalf("expected self vote, got %v", err)
	}

	game := loadGame(t, store, code)
	votes, _ := store.ListVotes(ctx, game.ID, 1)
	if len(votes) != 1 {
		t.Fatalf("expected 1 vote, got %d", len(votes))
	}
}

func TestVoteRejectsForeignAndUnknownAnswers(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()
	codeA, idsA := votingRoom(t, svc, clock, "A1", "A2")
	codeB, idsB := votingRoom(t, svc, clock, "B1", "B2")
	foreign := answerOf(t, store, codeB, idsB[0])

	if err := svc.CastVote(ctx, codeA, idsA[0], foreign); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("expected invalid answer for other game's answer, got %v", err)
	}
	if err := svc.CastVote(ctx, codeA, idsA[0], "no-such-answer"); !errors.Is(err, ErrInvalidAnswer) {
		t.Fatalf("expected invalid answer, got %v", err)
	}
	if err := svc.CastVote(ctx, codeA, idsB[1], answerOf(t, store, codeA, idsA[0])); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected foreign voter to be not found, got %v", err)
	}
	if err := svc.CastVote(ctx, codeA, "", "x"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestVoteOutsideVotingPhase(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()
	code, ids := startedRoom(t, svc, "P1", "P2")
	submit(t, svc, code, ids[0], "one")
	submit(t, svc, code, ids[1], "two")
	answer := answerOf(t, store, code, ids[1])

	if err := svc.CastVote(ctx, code, ids[0], answer); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected wrong phase during answering, got %v", err)
	}

	clock.Advance(60 * time.Second)
	advance(t, svc, code)
	clock.Advance(30 * time.Second)
	advance(t, svc, code)
	if err := svc.CastVote(ctx, code, ids[0], answer); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected wrong phase during results, got %v", err)
	}
}

func TestVotableExcludesOwnAnswer(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()
	code, ids := votingRoom(t, svc, clock, "P1", "P2", "P3")

	list, err := svc.Votable(ctx, code, ids[0])
	if err != nil {
		t.Fatalf("votable: %v", err)
	}
	if len(list.Answers) != 2 || list.HasVoted {
		t.Fatalf("expected 2 answers and no vote yet, got %#v", list)
	}
	own := answerOf(t, store, code, ids[0])
	for _, answer := range list.Answers {
		if answer.ID == own {
			t.Fatalf("expected own answer to be excluded")
		}
		if answer.AuthorDisplayName == "" {
			t.Fatalf("expected author name on votable answer")
		}
	}

	if err := svc.CastVote(ctx, code, ids[0], list.Answers[0].ID); err != nil {
		t.Fatalf("vote: %v", err)
	}
	list, _ = svc.Votable(ctx, code, ids[0])
	if !list.HasVoted {
		t.Fatalf("expected hasVoted after voting")
	}

	all, _ := svc.Votable(ctx, code, "")
	if len(all.Answers) != 3 || all.HasVoted {
		t.Fatalf("expected every answer without a player, got %#v", all)
	}
}

func TestResultsTally(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()
	code, ids := votingRoom(t, svc, clock, "P1", "P2", "P3")
	p3Answer := answerOf(t, store, code, ids[2])

	if _, err := svc.Results(ctx, code); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected results to wait for results phase, got %v", err)
	}
	for _, voter := range ids[:2] {
		if err := svc.CastVote(ctx, code, voter, p3Answer); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}
	clock.Advance(30 * time.Second)
	advance(t, svc, code)

	results, err := svc.Results(ctx, code)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results.Answers) != 3 {
		t.Fatalf("expected 3 tallied answers, got %d", len(results.Answers))
	}
	top := results.Answers[0]
	if top.ID != p3Answer || top.Votes != 2 || top.AuthorDisplayName != "P3" {
		t.Fatalf("expected P3 on top with 2 votes, got %#v", top)
	}
	if results.Answers[1].AuthorDisplayName != "P1" || results.Answers[2].AuthorDisplayName != "P2" {
		t.Fatalf("expected ties ordered by join order, got %#v", results.Answers)
	}
}

func TestConcurrentDoubleVoteStoresOne(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()
	code, ids := votingRoom(t, svc, clock, "P1", "P2", "P3")
	target := answerOf(t, store, code, ids[1])

	var wg sync.WaitGroup
	errs := make(chan error, 12)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.CastVote(ctx, code, ids[0], target)
		}()
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrAlreadyVoted):
		default:
			t.Fatalf("unexpected vote error: %v", err)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted vote, got %d", accepted)
	}
	game := loadGame(t, store, code)
	if votes, _ := store.ListVotes(ctx, game.ID, 1); len(votes) != 1 {
		t.Fatalf("expected 1 vote row, got %d", len(votes))
	}
}

// lateVoteStore closes the voting phase between the service's checks and
// the vote insert.
type lateVoteStore struct {
	*MemoryStore
	at time.Time
}

func (s lateVoteStore) InsertVoteIfAbsent(ctx context.Context, vote Vote) (bool, error) {
	if _, err := s.MemoryStore.AdvancePhase(ctx, vote.GameID, vote.RoundNumber, PhaseVoting, s.at, func(int) Phase {
		return PhaseResults
	}); err != nil {
		return false, err
	}
	return s.MemoryStore.InsertVoteIfAbsent(ctx, vote)
}

func TestCastVoteLosesToPhaseAdvance(t *testing.T) {
	clock := newFakeClock()
	store := lateVoteStore{MemoryStore: NewMemoryStore(DefaultPrompts()...), at: clock.Now()}
	svc := NewService(store, WithClock(clock.Now))
	ctx := context.Background()
	code, ids := votingRoom(t, svc, clock, "P1", "P2")
	target := answerOf(t, store.MemoryStore, code, ids[1])

	if err := svc.CastVote(ctx, code, ids[0], target); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected wrong phase, got %v", err)
	}
	game := loadGame(t, store.MemoryStore, code)
	if votes, _ := store.ListVotes(ctx, game.ID, 1); len(votes) != 0 {
		t.Fatalf("expected no vote after results, got %d", len(votes))
	}
}
