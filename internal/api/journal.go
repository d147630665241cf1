package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"wavewatch/internal/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	defaultJournalSpan  = 24 * time.Hour
)

// JournalReader reads dispatched alerts back from the signal journal.
type JournalReader interface {
	FindRecent(ctx context.Context, symbol string, limit int) ([]models.SignalRecord, error)
	CountByDirection(ctx context.Context, symbol string) (map[models.Direction]int64, error)
	GetSignalsByTimeRange(ctx context.Context, start, end time.Time) ([]models.SignalRecord, error)
}

// WithJournal exposes GET /signals/:symbol/history and GET /journal.
func (s *Server) WithJournal(j JournalReader) *Server {
	s.journal = j
	s.engine.GET("/signals/:symbol/history", s.history)
	s.engine.GET("/journal", s.journalRange)
	return s
}

func (s *Server) history(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be within 1..500"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	records, err := s.journal.FindRecent(ctx, symbol, limit)
	if err != nil {
		s.journalError(c, err)
		return
	}
	counts, err := s.journal.CountByDirection(ctx, symbol)
	if err != nil {
		s.journalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "signals": records, "counts": counts})
}

// journalRange lists alerts of every symbol between from and to (RFC3339).
// The default range is the last 24 hours.
func (s *Server) journalRange(c *gin.Context) {
	to := time.Now().UTC()
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to: " + err.Error()})
			return
		}
		to = t
	}
	from := to.Add(-defaultJournalSpan)
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from: " + err.Error()})
			return
		}
		from = t
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from is after to"})
		return
	}

	records, err := s.journal.GetSignalsByTimeRange(c.Request.Context(), from, to)
	if err != nil {
		s.journalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"from": from, "to": to, "signals": records})
}

func (s *Server) journalError(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("journal query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "journal unavailable"})
}
