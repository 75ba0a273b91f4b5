// Package api exposes the session over HTTP for the display layer. All
// mutating routes funnel into the session, which serializes edits; derived
// payloads are cached per session revision so repeated reads between edits
// are free.
package api

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/echemtools/cellcycle-go/internal/conf"
	"github.com/echemtools/cellcycle-go/internal/errors"
	"github.com/echemtools/cellcycle-go/internal/ingest"
	"github.com/echemtools/cellcycle-go/internal/logging"
	"github.com/echemtools/cellcycle-go/internal/session"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	Session  *session.Session

	parsers map[ingest.Instrument]ingest.Parser

	seriesCache *cache.Cache
	apiLogger   *slog.Logger
}

// New creates the controller and registers all routes under /api/v1.
func New(e *echo.Echo, settings *conf.Settings, s *session.Session, parsers []ingest.Parser) *Controller {
	c := &Controller{
		Echo:        e,
		Settings:    settings,
		Session:     s,
		parsers:     make(map[ingest.Instrument]ingest.Parser, len(parsers)),
		seriesCache: cache.New(5*time.Minute, 10*time.Minute),
		apiLogger:   logging.ForService("api"),
	}
	for _, p := range parsers {
		c.parsers[p.Instrument()] = p
	}

	c.Group = e.Group("/api/v1")
	c.Group.Use(c.recoverWithDump)
	c.initRoutes()
	return c
}

// recoverWithDump converts a handler panic into a 500 response, writing a
// numbered session dump first so the state that produced the failure can be
// inspected post-mortem.
func (c *Controller) recoverWithDump(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}
			c.dumpSession(fmt.Sprintf("handler panic: %v", r))
			err = c.HandleError(ctx, fmt.Errorf("%v", r), "Internal server error", http.StatusInternalServerError)
		}()
		return next(ctx)
	}
}

// dumpSession writes a crash diagnostic dump to the configured directory.
func (c *Controller) dumpSession(reason string) {
	path, err := c.Session.WriteDump(c.Settings.Session.DumpPath, reason)
	if err != nil {
		c.apiLogger.Error("session dump failed", "reason", reason, "error", err)
		return
	}
	c.apiLogger.Error("session dumped", "reason", reason, "dump", path)
}

func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.initExperimentRoutes()
	c.initSelectionRoutes()
	c.initComparisonRoutes()
	c.initSeriesRoutes()
}

// HealthCheck returns liveness plus the session token and revision.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":   "healthy",
		"session":  c.Session.Token(),
		"revision": c.Session.Revision(),
	})
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// generateCorrelationID creates a short random identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError maps a domain error to an HTTP status and returns the JSON
// error body.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := &ErrorResponse{
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Error = message
	}

	c.apiLogger.Error("API error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", resp.Error,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
	)
	return ctx.JSON(code, resp)
}

// statusForError picks the HTTP status from the error's domain category.
// State-category errors are invariant violations, not client mistakes, so
// they surface as server errors.
func statusForError(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryState):
		return http.StatusInternalServerError
	case errors.IsCategory(err, errors.CategoryValidation),
		errors.IsCategory(err, errors.CategoryOrdering),
		errors.IsCategory(err, errors.CategoryIngestion),
		errors.IsCategory(err, errors.CategoryInstrumentMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail is the shorthand used by handlers for domain errors. An invariant
// violation additionally triggers a diagnostic dump.
func (c *Controller) fail(ctx echo.Context, err error, message string) error {
	if errors.IsCategory(err, errors.CategoryState) {
		c.dumpSession("state invariant: " + err.Error())
	}
	return c.HandleError(ctx, err, message, statusForError(err))
}

// revisionKey builds a cache key that is invalidated by any committed
// session mutation.
func (c *Controller) revisionKey(parts ...any) string {
	return fmt.Sprintf("rev%d:%v", c.Session.Revision(), parts)
}
