package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/five82/sprinkler/internal/model"
)

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Options configure the HTTP surface.
type Options struct {
	// Token, when set, is required as a bearer token on every request.
	Token string
	// RejectStopBody answers 415 to a stop request that carries a body, as
	// some controller firmware does.
	RejectStopBody bool
	Logger         *zap.Logger
}

// Server exposes a Controller over the controller HTTP API.
type Server struct {
	ctrl *Controller
	opts Options
	log  *zap.Logger
}

// NewServer wires ctrl to the HTTP API.
func NewServer(ctrl *Controller, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{ctrl: ctrl, opts: opts, log: log}
}

// Routes builds the gin engine with all routes registered.
func (s *Server) Routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.accessLog)

	api := router.Group("/api", s.requireToken)
	{
		api.GET("/status", s.status)

		schedules := api.Group("/schedules")
		{
			schedules.GET("", s.listSchedules)
			schedules.POST("", s.createSchedule)
			schedules.POST("/reorder", s.reorderSchedules)
			schedules.PUT("/:id", s.updateSchedule)
			schedules.DELETE("/:id", s.deleteSchedule)
		}

		api.GET("/pins", s.listPins)
		api.POST("/pins/:pin/action", s.pinAction)

		api.POST("/rain-lock", s.setRainLock)
		api.DELETE("/rain-lock", s.clearRainLock)
	}
	return router
}

// Serve listens on addr until ctx ends, then shuts down gracefully. ready,
// when non-nil, receives the bound address once listening.
func (s *Server) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.log.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", c.GetHeader("X-Request-ID")))
}

func (s *Server) requireToken(c *gin.Context) {
	if s.opts.Token == "" {
		return
	}
	if c.GetHeader("Authorization") != "Bearer "+s.opts.Token {
		abortDetail(c, http.StatusUnauthorized, "Missing or invalid token")
	}
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Status())
}

func (s *Server) listSchedules(c *gin.Context) {
	s.respondCacheable(c, s.ctrl.Schedules())
}

func (s *Server) listPins(c *gin.Context) {
	s.respondCacheable(c, s.ctrl.Pins())
}

func (s *Server) createSchedule(c *gin.Context) {
	var in model.Schedule
	if !bindJSON(c, &in) {
		return
	}
	created, err := s.ctrl.CreateSchedule(in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) updateSchedule(c *gin.Context) {
	var in model.Schedule
	if !bindJSON(c, &in) {
		return
	}
	updated, err := s.ctrl.UpdateSchedule(c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteSchedule(c *gin.Context) {
	if err := s.ctrl.DeleteSchedule(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) reorderSchedules(c *gin.Context) {
	var ids []string
	if !bindJSON(c, &ids) {
		return
	}
	if err := s.ctrl.ReorderSchedules(ids); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) pinAction(c *gin.Context) {
	pin, err := strconv.Atoi(c.Param("pin"))
	if err != nil {
		abortDetail(c, http.StatusNotFound, "Zone not configured")
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortDetail(c, http.StatusBadRequest, "Unreadable body")
		return
	}

	// An empty body is a stop.
	var action model.PinAction
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &action); err != nil {
			abortDetail(c, http.StatusBadRequest, "Invalid body: "+err.Error())
			return
		}
		if action.DurationMinutes == 0 && s.opts.RejectStopBody {
			abortDetail(c, http.StatusUnsupportedMediaType, "Stop takes no body")
			return
		}
	}
	if err := s.ctrl.RunPin(pin, action.DurationMinutes); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) setRainLock(c *gin.Context) {
	var in model.RainLock
	if !bindJSON(c, &in) {
		return
	}
	state, err := s.ctrl.SetRainLock(in.Hours)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) clearRainLock(c *gin.Context) {
	s.ctrl.ClearRainLock()
	c.Status(http.StatusNoContent)
}

// respondCacheable writes v as JSON with a content-derived ETag and answers
// a matching If-None-Match with 304.
func (s *Server) respondCacheable(c *gin.Context, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.fail(c, err)
		return
	}
	etag := etagOf(body)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

func (s *Server) fail(c *gin.Context, err error) {
	var p *Problem
	if errors.As(err, &p) {
		abortDetail(c, p.Status, p.Detail)
		return
	}
	s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	abortDetail(c, http.StatusInternalServerError, "Internal server error")
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortDetail(c, http.StatusBadRequest, "Invalid body: "+err.Error())
		return false
	}
	return true
}

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func etagOf(body []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(body)
	return fmt.Sprintf(`"%016x"`, h.Sum64())
}
