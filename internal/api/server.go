// Package api exposes the small admin surface of the daemon: manual run
// triggers and processed-message counts.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kvashee/bankfeed/internal/scheduler"
)

// CountStore reads processed-message counts.
type CountStore interface {
	CountProcessed(ctx context.Context, userID int64) (int64, error)
}

// Server is the admin HTTP server
type Server struct {
	echo      *echo.Echo
	scheduler *scheduler.Scheduler
	counts    CountStore
	logger    *slog.Logger
}

// New creates the admin server
func New(sched *scheduler.Scheduler, counts CountStore, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		echo:      e,
		scheduler: sched,
		counts:    counts,
		logger:    logger.With("component", "api"),
	}

	e.GET("/healthz", s.health)
	e.POST("/api/v1/users/:id/trigger", s.trigger)
	e.GET("/api/v1/users/:id/processed/count", s.processedCount)

	return s
}

// Start blocks serving HTTP until Shutdown is called
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// trigger runs a user's ingestion synchronously and returns the result.
// It follows the same dispatch path as the scheduler tick: same worker
// pool, same single-run-per-user lock, no due check.
func (s *Server) trigger(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user id"})
	}

	result, err := s.scheduler.Trigger(c.Request().Context(), userID)
	if errors.Is(err, scheduler.ErrRunInFlight) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "run already in flight"})
	}
	if err != nil {
		s.logger.Error("manual trigger failed", "user_id", userID, "error", err)
		if result != nil {
			// Partial result carries the per-message errors for diagnosis.
			return c.JSON(http.StatusInternalServerError, result)
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) processedCount(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user id"})
	}

	count, err := s.counts.CountProcessed(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to count processed messages"})
	}

	return c.JSON(http.StatusOK, map[string]int64{"count": count})
}
