// Package api exposes the task lifecycle over HTTP for UI shells and
// external notification bridges.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkv93/nudge/internal/delay"
	"github.com/sandeepkv93/nudge/internal/lifecycle"
	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/notify"
	"github.com/sandeepkv93/nudge/internal/workinghours"
)

// TaskService is the part of *lifecycle.Service the handlers drive.
type TaskService interface {
	Add(ctx context.Context, draft model.TaskDraft) (lifecycle.Result, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (lifecycle.Result, error)
	ToggleComplete(ctx context.Context, id string) (lifecycle.Result, error)
	Delay(ctx context.Context, id, amount string) (lifecycle.Result, error)
	Delete(ctx context.Context, id string) (lifecycle.Result, error)
	HandleAction(ctx context.Context, action notify.Action) (lifecycle.Result, error)
	Tasks() []model.Task
	Task(id string) (model.Task, bool)
	Settings() model.Settings
	UpdateSettings(ctx context.Context, fn func(*model.Settings)) (lifecycle.SettingsResult, error)
}

type Handler struct {
	svc TaskService
	log *slog.Logger
}

func NewHandler(svc TaskService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log.With("component", "api")}
}

// GET /tasks?active=true
func (h *Handler) ListTasks(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	out := make([]taskResponse, 0)
	for _, t := range h.svc.Tasks() {
		if activeOnly && !t.IsActive() {
			continue
		}
		out = append(out, toTaskResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

// GET /tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	task, ok := h.svc.Task(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, taskEnvelope{Task: toTaskResponse(task)})
}

// POST /tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.Add(c.Request.Context(), req.draft())
	h.respondTask(c, http.StatusCreated, res, err)
}

// PATCH /tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.Update(c.Request.Context(), c.Param("id"), req.patch())
	h.respondTask(c, http.StatusOK, res, err)
}

// POST /tasks/:id/toggle
func (h *Handler) ToggleTask(c *gin.Context) {
	res, err := h.svc.ToggleComplete(c.Request.Context(), c.Param("id"))
	h.respondTask(c, http.StatusOK, res, err)
}

// POST /tasks/:id/delay
func (h *Handler) DelayTask(c *gin.Context) {
	var req delayRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	res, err := h.svc.Delay(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Amount))
	h.respondTask(c, http.StatusOK, res, err)
}

// DELETE /tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	res, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	h.respondTask(c, http.StatusOK, res, err)
}

// POST /actions
func (h *Handler) PostAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action := notify.Action{Identifier: req.Identifier, ActionID: req.ActionID}
	if req.TaskID != "" {
		action.Payload = notify.Payload{TaskID: req.TaskID, IsPrimary: !notify.IsFollowUpIdentifier(req.Identifier)}
		if req.IsPrimary != nil {
			action.Payload.IsPrimary = *req.IsPrimary
		}
	}
	res, err := h.svc.HandleAction(c.Request.Context(), action)
	h.respondTask(c, http.StatusOK, res, err)
}

// GET /settings
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, toSettingsResponse(h.svc.Settings()))
}

// PUT /settings
func (h *Handler) PutSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	apply, err := req.mutation()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.UpdateSettings(c.Request.Context(), apply)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := toSettingsResponse(res.Settings)
	if res.Scheduling != nil {
		out.SchedulingWarning = res.Scheduling.Error()
	}
	c.JSON(http.StatusOK, out)
}

var errModeConflict = errors.New("working_hours_enabled and twenty_four_hour_mode must disagree")

// mutation validates the request up front, since the settings callback
// cannot fail.
func (r settingsRequest) mutation() (func(*model.Settings), error) {
	if r.WorkingHoursEnabled != nil && r.TwentyFourHourMode != nil && *r.WorkingHoursEnabled == *r.TwentyFourHourMode {
		return nil, errModeConflict
	}
	var start, end *workinghours.Clock
	if r.Start != nil {
		c, err := workinghours.ParseClock(*r.Start)
		if err != nil {
			return nil, err
		}
		start = &c
	}
	if r.End != nil {
		c, err := workinghours.ParseClock(*r.End)
		if err != nil {
			return nil, err
		}
		end = &c
	}
	var defaultDelay string
	if r.DefaultDelay != nil {
		if !delay.Valid(*r.DefaultDelay) {
			return nil, errors.New("default_delay has no duration tokens")
		}
		defaultDelay = delay.Format(delay.Parse(*r.DefaultDelay))
	}
	return func(s *model.Settings) {
		if r.WorkingHoursEnabled != nil {
			s.SetWorkingHoursEnabled(*r.WorkingHoursEnabled)
		}
		if r.TwentyFourHourMode != nil {
			s.SetTwentyFourHourMode(*r.TwentyFourHourMode)
		}
		if start != nil {
			s.Window.Start = *start
		}
		if end != nil {
			s.Window.End = *end
		}
		if defaultDelay != "" {
			s.DefaultDelay = defaultDelay
		}
	}, nil
}

func (h *Handler) respondTask(c *gin.Context, status int, res lifecycle.Result, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := taskEnvelope{Task: toTaskResponse(res.Task)}
	if res.Scheduling != nil {
		out.SchedulingWarning = res.Scheduling.Error()
		h.log.Warn("scheduling incomplete", "task_id", res.Task.ID, "err", res.Scheduling)
	}
	c.JSON(status, out)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var perr *lifecycle.PersistenceError
	switch {
	case errors.Is(err, lifecycle.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &perr):
		h.log.Error("persistence failure", "op", perr.Op, "task_id", perr.TaskID, "err", perr.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
