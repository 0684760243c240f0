package game

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *MemoryStore, *fakeClock) {
	t.Helper()
	store := NewMemoryStore(DefaultPrompts()...)
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewService(store, opts...), store, clock
}

func createRoom(t *testing.T, svc *Service) string {
	t.Helper()
	game, err := svc.CreateRoom(context.Background())
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return game.RoomCode
}

func joinPlayer(t *testing.T, svc *Service, code, name string) string {
	t.Helper()
	result, err := svc.Join(context.Background(), code, name)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return result.PlayerID
}

func startedRoom(t *testing.T, svc *Service, names ...string) (string, []string) {
	t.Helper()
	code := createRoom(t, svc)
	ids := make([]string, 0, len(names))
	for _, name := range names {
		ids = append(ids, joinPlayer(t, svc, code, name))
	}
	if len(names) < MaxPlayers {
		if _, err := svc.Start(context.Background(), code); err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	return code, ids
}

func submit(t *testing.T, svc *Service, code, playerID, text string) {
	t.Helper()
	if err := svc.SubmitAnswer(context.Background(), code, playerID, text); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
}

func advance(t *testing.T, svc *Service, code string) AdvanceResult {
	t.Helper()
	result, err := svc.Advance(context.Background(), code)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	return result
}

func loadGame(t *testing.T, store *MemoryStore, code string) Game {
	t.Helper()
	game, err := store.GameByRoomCode(context.Background(), code)
	if err != nil {
		t.Fatalf("load game: %v", err)
	}
	return game
}
