package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charue808/eikogames/internal/game"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, game.ErrNoPrompts), errors.Is(err, game.ErrAllocationExhausted):
		return http.StatusInternalServerError
	case game.Category(err) == game.CategoryStoreFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var notExpired *game.PhaseNotExpiredError
	switch {
	case errors.As(err, &notExpired):
		body["error"] = game.ErrPhaseNotExpired.Error()
		body["timeRemaining"] = notExpired.TimeRemaining
	case errors.Is(err, game.ErrAlreadyAtTerminalPhase):
		body["phase"] = game.PhaseResults
	case errors.Is(err, game.ErrNoPrompts), errors.Is(err, game.ErrAllocationExhausted):
		log.Printf("request failed method=%s path=%s error=%v", c.Request.Method, c.FullPath(), err)
	case status == http.StatusInternalServerError:
		log.Printf("request failed method=%s path=%s error=%v", c.Request.Method, c.FullPath(), err)
		body["error"] = "internal server error"
	}
	c.JSON(status, body)
}
