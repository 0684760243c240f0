package server

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/charue808/eikogames/internal/game"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlap_http_requests_total",
			Help: "HTTP requests handled, by route and status code",
		},
		[]string{"route", "status"},
	)
	phaseTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlap_phase_transitions_total",
			Help: "Committed round phase transitions",
		},
		[]string{"from", "to"},
	)
	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlap_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests)
	prometheus.MustRegister(phaseTransitions)
	prometheus.MustRegister(rateLimited)
}

func observeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func recordTransition(from, to game.Phase) {
	label := string(from)
	if from == game.PhaseNone {
		label = "lobby"
	}
	phaseTransitions.WithLabelValues(label, string(to)).Inc()
}
