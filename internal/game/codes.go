package game

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log"
)

const (
	roomCodeAlphabet    = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	maxRoomCodeAttempts = 10
	// Bytes at or above this are redrawn so every symbol is equally likely.
	roomCodeByteLimit = 256 - 256%len(roomCodeAlphabet)
)

func newRoomCode() string {
	code, err := drawRoomCode(rand.Reader)
	if err != nil {
		return "AAAA"
	}
	return code
}

func drawRoomCode(r io.Reader) (string, error) {
	code := make([]byte, 0, RoomCodeLength)
	buf := make([]byte, RoomCodeLength)
	for len(code) < RoomCodeLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= roomCodeByteLimit || len(code) == RoomCodeLength {
				continue
			}
			code = append(code, roomCodeAlphabet[int(b)%len(roomCodeAlphabet)])
		}
	}
	return string(code), nil
}

type roomCodeChecker interface {
	RoomCodeExists(ctx context.Context, roomCode string) (bool, error)
}

type CodeAllocator struct {
	store    roomCodeChecker
	generate func() string
}

func NewCodeAllocator(store roomCodeChecker) *CodeAllocator {
	return &CodeAllocator{store: store, generate: newRoomCode}
}

// Allocate draws codes until one is unused. It only reads; the caller
// creates the game.
func (a *CodeAllocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxRoomCodeAttempts; attempt++ {
		code := a.generate()
		exists, err := a.store.RoomCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if !exists {
			return code, nil
		}
		log.Printf("room code collision room_code=%s attempt=%d", code, attempt+1)
	}
	return "", ErrAllocationExhausted
}
