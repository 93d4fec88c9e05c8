package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"ghostline/engine"
	"ghostline/logger"
	"ghostline/types"
)

const (
	shutdownGracePeriod = 5 * time.Second
	readTimeout         = 15 * time.Second
	writeTimeout        = 30 * time.Second
)

// Server is the daemon's HTTP surface toward editor integrations. Every
// completion failure maps to a null completion, never a 5xx, so editors can
// treat any non-200 as a daemon problem rather than a model problem.
type Server struct {
	eng     *engine.Engine
	app     *echo.Echo
	address string
}

// New wires the routes and middleware over the engine.
func New(eng *engine.Engine, address string) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine must not be nil")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("4M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("http %s %s -> %d (%dms)", v.Method, v.URI, v.Status, v.Latency.Milliseconds())
			return nil
		},
	}))

	srv := &Server{eng: eng, app: e, address: address}
	srv.registerRoutes()
	return srv, nil
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("listening on %s", s.address)

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.GET("/stats", s.handleStats)
	s.app.POST("/v1/completion", s.handleCompletion)
	s.app.POST("/v1/accepted", s.handleAccepted)
	s.app.POST("/v1/edited", s.handleEdited)
	s.app.POST("/v1/visited", s.handleVisited)
	s.app.POST("/v1/stats/reset", s.handleStatsReset)
}

type completionRequest struct {
	FilePath  string `json:"file_path"`
	Language  string `json:"language"`
	Prefix    string `json:"prefix"`
	Suffix    string `json:"suffix"`
	CursorRow int    `json:"cursor_row"`
	CursorCol int    `json:"cursor_col"`
	// Trigger is "explicit" for user-invoked completions, anything else is
	// treated as automatic.
	Trigger string `json:"trigger"`
}

type completionBody struct {
	CompletionID string `json:"completion_id"`
	Text         string `json:"text"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
}

type completionResponse struct {
	Completion *completionBody `json:"completion"`
}

func (s *Server) handleCompletion(c echo.Context) error {
	var req completionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.FilePath == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "file_path is required")
	}

	trigger := types.TriggerAutomatic
	if req.Trigger == "explicit" {
		trigger = types.TriggerExplicit
	}

	res, completionID := s.eng.Complete(c.Request().Context(), &types.CompletionRequest{
		FilePath:  req.FilePath,
		Language:  req.Language,
		Prefix:    req.Prefix,
		Suffix:    req.Suffix,
		CursorRow: req.CursorRow,
		CursorCol: req.CursorCol,
		Trigger:   trigger,
	})
	if res == nil {
		return c.JSON(http.StatusOK, completionResponse{})
	}
	return c.JSON(http.StatusOK, completionResponse{Completion: &completionBody{
		CompletionID: completionID,
		Text:         res.Text,
		Model:        res.ModelID,
		Provider:     res.Provider,
	}})
}

type acceptedRequest struct {
	FilePath string `json:"file_path"`
	Inserted string `json:"inserted_text"`
}

func (s *Server) handleAccepted(c echo.Context) error {
	var req acceptedRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	accepted := s.eng.ReportInsertion(req.FilePath, req.Inserted)
	return c.JSON(http.StatusOK, map[string]bool{"accepted": accepted})
}

type rangeRequest struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Content   string `json:"content"`
}

func (s *Server) handleEdited(c echo.Context) error {
	var req rangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s.eng.RecordEdit(req.FilePath, req.StartLine, req.EndLine, req.Content)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleVisited(c echo.Context) error {
	var req rangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s.eng.RecordVisit(req.FilePath, req.StartLine, req.EndLine, req.Content)
	return c.NoContent(http.StatusNoContent)
}

type statsResponse struct {
	TotalRequests         int64 `json:"total_requests"`
	SuccessfulCompletions int64 `json:"successful_completions"`
	AcceptedCompletions   int64 `json:"accepted_completions"`
	TrackedRecords        int   `json:"tracked_records"`
}

func (s *Server) handleStats(c echo.Context) error {
	stats := s.eng.Stats()
	return c.JSON(http.StatusOK, statsResponse{
		TotalRequests:         stats.TotalRequests,
		SuccessfulCompletions: stats.SuccessfulCompletions,
		AcceptedCompletions:   stats.AcceptedCompletions,
		TrackedRecords:        s.eng.TrackedCount(),
	})
}

func (s *Server) handleStatsReset(c echo.Context) error {
	s.eng.ResetStats()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
