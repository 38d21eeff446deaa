package sprinkler

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/sprinkler/internal/api"
	"github.com/five82/sprinkler/internal/model"
)

const (
	pathStatus    = "/api/status"
	pathSchedules = "/api/schedules"
	pathReorder   = "/api/schedules/reorder"
	pathPins      = "/api/pins"
	pathRainLock  = "/api/rain-lock"
)

// Controller is the set of controller operations used by the poller and UI.
// *Client implements it.
type Controller interface {
	FetchStatus(ctx context.Context) (model.Status, error)
	ListSchedules(ctx context.Context) ([]model.Schedule, error)
	CreateSchedule(ctx context.Context, s model.Schedule) (model.Schedule, error)
	UpdateSchedule(ctx context.Context, s model.Schedule) (model.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	ReorderSchedules(ctx context.Context, ids []string) error
	FetchPins(ctx context.Context) ([]model.Pin, error)
	RunPin(ctx context.Context, pin, minutes int) error
	StopPin(ctx context.Context, pin int) error
	SetRainLock(ctx context.Context, hours int) (model.RainLockState, error)
	ClearRainLock(ctx context.Context) error
}

// Ensure Client implements Controller at compile time.
var _ Controller = (*Client)(nil)

// Client maps controller operations onto endpoints. It never retries on its
// own; retry, caching and classification belong to the api.Doer.
type Client struct {
	baseURL string
	doer    api.Doer
	auth    Authenticator
	log     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client's logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient builds a Client for the controller at baseURL. auth may be nil.
func NewClient(baseURL string, doer api.Doer, auth Authenticator, opts ...ClientOption) (*Client, error) {
	if doer == nil {
		return nil, fmt.Errorf("transport is nil")
	}
	if _, err := api.ResolveURL(baseURL, "/"); err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimSpace(baseURL),
		doer:    doer,
		auth:    auth,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the controller address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchStatus retrieves controller health. It always goes to the network.
func (c *Client) FetchStatus(ctx context.Context) (model.Status, error) {
	var status model.Status
	err := c.do(ctx, api.Get(pathStatus).WithCache(api.CacheBypass), &status)
	return status, err
}

// ListSchedules retrieves all schedules in controller order.
func (c *Client) ListSchedules(ctx context.Context) ([]model.Schedule, error) {
	var schedules []model.Schedule
	if err := c.do(ctx, api.Get(pathSchedules), &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// CreateSchedule validates s and creates it. An empty ID is filled with a
// fresh UUID so retried creates stay idempotent on the controller.
func (c *Client) CreateSchedule(ctx context.Context, s model.Schedule) (model.Schedule, error) {
	if err := s.Validate(); err != nil {
		return model.Schedule{}, fmt.Errorf("invalid schedule: %w", err)
	}
	if strings.TrimSpace(s.ID) == "" {
		s.ID = uuid.NewString()
	}
	var created model.Schedule
	if err := c.do(ctx, api.Post(pathSchedules).WithBody(s), &created); err != nil {
		return model.Schedule{}, err
	}
	return created, nil
}

// UpdateSchedule validates s and replaces the stored schedule with the same ID.
func (c *Client) UpdateSchedule(ctx context.Context, s model.Schedule) (model.Schedule, error) {
	if strings.TrimSpace(s.ID) == "" {
		return model.Schedule{}, fmt.Errorf("schedule id required")
	}
	if err := s.Validate(); err != nil {
		return model.Schedule{}, fmt.Errorf("invalid schedule: %w", err)
	}
	var updated model.Schedule
	if err := c.do(ctx, api.Put(schedulePath(s.ID)).WithBody(s), &updated); err != nil {
		return model.Schedule{}, err
	}
	return updated, nil
}

// DeleteSchedule removes the schedule with id.
func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("schedule id required")
	}
	return c.do(ctx, api.Delete(schedulePath(id)), &api.NoContent{})
}

// ReorderSchedules sends the full ordered list of schedule IDs.
func (c *Client) ReorderSchedules(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return c.do(ctx, api.Post(pathReorder).WithBody(ids), &api.NoContent{})
}

// FetchPins retrieves the controller's view of its outputs. The result is
// partial; reconcile it against the local catalog before display.
func (c *Client) FetchPins(ctx context.Context) ([]model.Pin, error) {
	var pins []model.Pin
	if err := c.do(ctx, api.Get(pathPins), &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

// RunPin energises pin for minutes.
func (c *Client) RunPin(ctx context.Context, pin, minutes int) error {
	if pin <= 0 {
		return fmt.Errorf("invalid pin %d", pin)
	}
	if minutes <= 0 {
		return fmt.Errorf("run time must be positive, got %d minutes", minutes)
	}
	ep := api.Post(pinActionPath(pin)).WithBody(model.PinAction{DurationMinutes: minutes})
	return c.do(ctx, ep, &api.NoContent{})
}

// StopPin de-energises pin. Some controller builds reject a body on stop, so
// the request falls back to an empty body.
func (c *Client) StopPin(ctx context.Context, pin int) error {
	if pin <= 0 {
		return fmt.Errorf("invalid pin %d", pin)
	}
	ep := api.Post(pinActionPath(pin)).
		WithBody(model.PinAction{DurationMinutes: 0}).
		WithFallbackToEmptyBody()
	return c.do(ctx, ep, &api.NoContent{})
}

// SetRainLock suspends watering for hours.
func (c *Client) SetRainLock(ctx context.Context, hours int) (model.RainLockState, error) {
	if hours <= 0 {
		return model.RainLockState{}, fmt.Errorf("hours must be positive, got %d", hours)
	}
	var state model.RainLockState
	err := c.do(ctx, api.Post(pathRainLock).WithBody(model.RainLock{Hours: hours}), &state)
	return state, err
}

// ClearRainLock lifts an active rain lock.
func (c *Client) ClearRainLock(ctx context.Context) error {
	return c.do(ctx, api.Delete(pathRainLock), &api.NoContent{})
}

func (c *Client) do(ctx context.Context, ep api.Endpoint, dest any) error {
	if c.auth != nil {
		header, err := c.auth.AuthorizationHeader(ctx)
		if err != nil {
			return fmt.Errorf("authorization: %w", err)
		}
		if header != "" {
			ep = ep.WithHeader("Authorization", header)
		}
	}
	err := c.doer.Do(ctx, c.baseURL, ep, dest)
	if err != nil {
		c.log.Debug("controller call failed",
			zap.String("method", ep.Method),
			zap.String("path", ep.Path),
			zap.Error(err))
	}
	return err
}

func schedulePath(id string) string {
	return pathSchedules + "/" + url.PathEscape(id)
}

func pinActionPath(pin int) string {
	return pathPins + "/" + strconv.Itoa(pin) + "/action"
}
