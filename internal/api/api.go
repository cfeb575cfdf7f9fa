package api

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"user-sync-service/internal/config"
	"user-sync-service/internal/entity"
	"user-sync-service/internal/service"
)

// UserReader is the read surface the API needs from the repository.
type UserReader interface {
	ListUsers(ctx context.Context, limit, offset int, hasAddress, hasCard *bool) ([]*entity.User, error)
	GetUserByID(ctx context.Context, id int) (*entity.User, error)
}

// JobStatus reads recorded job runs.
type JobStatus interface {
	LastRun(ctx context.Context, name string) (*service.JobRun, error)
}

// JobTrigger publishes one manual job invocation.
type JobTrigger interface {
	Trigger(ctx context.Context, name string) error
}

type UserHandler struct {
	users   UserReader
	jobs    JobStatus
	trigger JobTrigger
}

// NewUserHandler creates a new instance of UserHandler
func NewUserHandler(users UserReader, jobs JobStatus, trigger JobTrigger) *UserHandler {
	return &UserHandler{users: users, jobs: jobs, trigger: trigger}
}

// ListUsers lists synced users --> /users?limit=&offset=&has_address=&has_card=
func (h *UserHandler) ListUsers(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(400, map[string]string{"error": "Invalid limit"})
		}
		limit = n
	}

	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(400, map[string]string{"error": "Invalid offset"})
		}
		offset = n
	}

	hasAddress, err := boolFilter(c.QueryParam("has_address"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid has_address"})
	}
	hasCard, err := boolFilter(c.QueryParam("has_card"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid has_card"})
	}

	users, err := h.users.ListUsers(c.Request().Context(), limit, offset, hasAddress, hasCard)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	for _, u := range users {
		maskCard(u)
	}
	if users == nil {
		users = []*entity.User{}
	}
	return c.JSON(200, users)
}

// GetUserByID retrieves a user by internal ID --> /users/:id
func (h *UserHandler) GetUserByID(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	user, err := h.users.GetUserByID(c.Request().Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(404, map[string]string{"error": "User not found"})
	}
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}

	maskCard(user)
	return c.JSON(200, user)
}

// GetJobRun reports the last recorded run of a job --> /jobs/:name
func (h *UserHandler) GetJobRun(c echo.Context) error {
	name := c.Param("name")
	if !knownJob(name) {
		return c.JSON(404, map[string]string{"error": "Unknown job"})
	}

	run, err := h.jobs.LastRun(c.Request().Context(), name)
	if errors.Is(err, redis.Nil) {
		return c.JSON(404, map[string]string{"error": "Job has not run yet"})
	}
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, run)
}

// TriggerJob queues one manual run of a job --> POST /jobs/:name/run
func (h *UserHandler) TriggerJob(c echo.Context) error {
	name := c.Param("name")
	if !knownJob(name) {
		return c.JSON(404, map[string]string{"error": "Unknown job"})
	}

	if err := h.trigger.Trigger(c.Request().Context(), name); err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(202, map[string]string{"status": "queued", "job": name})
}

// maskCard masks the card number in place; entities here are per-request
// copies from the repository.
func maskCard(u *entity.User) {
	if u.CreditCard != nil {
		u.CreditCard.CCNumber = MaskCardNumber(u.CreditCard.CCNumber)
	}
}

func boolFilter(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func knownJob(name string) bool {
	switch name {
	case config.JobSyncUsers, config.JobEnrichAddresses, config.JobEnrichCards:
		return true
	}
	return false
}
