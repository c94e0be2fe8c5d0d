package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fitcoach-backend/internal/core"
	"fitcoach-backend/internal/models"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// WorkoutHandler handles the active-workout logger endpoints.
type WorkoutHandler struct {
	workoutService core.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(ws core.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: ws}
}

func mapWorkoutErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrWorkoutNotFound), errors.Is(err, core.ErrRoutineNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found", Details: err.Error()})
	case errors.Is(err, core.ErrWorkoutNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Workout is no longer active"})
	case errors.Is(err, core.ErrEmptyWorkout):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Log at least one set before finishing"})
	case errors.Is(err, core.ErrUnknownExercise), errors.Is(err, core.ErrInvalidSet), errors.Is(err, core.ErrInvalidDayIndex):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid workout data", Details: err.Error()})
	case errors.Is(err, core.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
	default:
		internalError(c, "Failed to process workout request", err)
	}
}

// parseLimit reads ?limit=, falling back to def and capping at maxListLimit.
func parseLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		badRequest(c, "limit must be a positive integer", nil)
		return 0, false
	}
	if n > maxListLimit {
		n = maxListLimit
	}
	return n, true
}

// StartWorkout handles POST /workouts.
func (h *WorkoutHandler) StartWorkout(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	var req models.StartWorkoutRequest
	// An empty body starts a free-form session.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request payload", err)
			return
		}
	}
	w, err := h.workoutService.StartWorkout(c.Request.Context(), uid, req)
	if err != nil {
		mapWorkoutErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

// LogSet handles POST /workouts/:workoutId/sets.
func (h *WorkoutHandler) LogSet(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	var req models.LogSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}
	w, err := h.workoutService.LogSet(c.Request.Context(), uid, c.Param("workoutId"), req)
	if err != nil {
		mapWorkoutErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// FinishWorkout handles POST /workouts/:workoutId/finish.
func (h *WorkoutHandler) FinishWorkout(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	res, err := h.workoutService.FinishWorkout(c.Request.Context(), uid, c.Param("workoutId"))
	if err != nil {
		mapWorkoutErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AbandonWorkout handles POST /workouts/:workoutId/abandon.
func (h *WorkoutHandler) AbandonWorkout(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	w, err := h.workoutService.AbandonWorkout(c.Request.Context(), uid, c.Param("workoutId"))
	if err != nil {
		mapWorkoutErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// GetWorkout handles GET /workouts/:workoutId.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	w, err := h.workoutService.GetWorkout(c.Request.Context(), uid, c.Param("workoutId"))
	if err != nil {
		mapWorkoutErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListWorkouts handles GET /workouts.
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c, defaultListLimit)
	if !ok {
		return
	}
	list, err := h.workoutService.ListWorkouts(c.Request.Context(), uid, limit)
	if err != nil {
		mapWorkoutErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListPersonalRecords handles GET /personal-records.
func (h *WorkoutHandler) ListPersonalRecords(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	records, err := h.workoutService.ListPersonalRecords(c.Request.Context(), uid)
	if err != nil {
		mapWorkoutErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
