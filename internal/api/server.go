// Package api exposes the live signal table over HTTP and websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"wavewatch/internal/display"
)

const RequestIDHeaderKey = "X-Request-ID"

type Server struct {
	engine *gin.Engine
	board  *display.Board
	stream *Stream
	state  func() string
	log    zerolog.Logger

	settings SettingsController
	journal  JournalReader
}

// NewServer builds the routes. gatherer may be nil to disable /metrics and
// state may be nil when no monitor state is available.
func NewServer(board *display.Board, stream *Stream, gatherer prometheus.Gatherer, state func() string, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine: gin.New(),
		board:  board,
		stream: stream,
		state:  state,
		log:    log.With().Str("component", "api").Logger(),
	}

	s.engine.Use(gin.Recovery(), requestIDMiddleware(), s.loggerMiddleware())
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/signals", s.signals)
	s.engine.GET("/signals/:symbol", s.signal)
	s.engine.GET("/ws", s.websocket)
	if gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{"status": "ok", "cycles": s.board.Cycles()}
	if s.state != nil {
		resp["state"] = s.state()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) signals(c *gin.Context) {
	c.JSON(http.StatusOK, s.board.Snapshot())
}

func (s *Server) signal(c *gin.Context) {
	symbol := c.Param("symbol")
	row, ok := s.board.Row(symbol)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol", "symbol": symbol})
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) websocket(c *gin.Context) {
	var initial []byte
	if s.board.Cycles() > 0 {
		if payload, err := json.Marshal(s.board.Snapshot()); err == nil {
			initial = payload
		}
	}
	s.stream.serve(c, initial)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeaderKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeaderKey, requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

func (s *Server) loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("request_id", c.GetString("request_id")).
			Msg("http request")
	}
}
