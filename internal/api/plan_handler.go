package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitcoach-backend/internal/core"
	"fitcoach-backend/internal/models"
)

// PlanHandler serves routine generation, nutrition plans and weekly progress.
type PlanHandler struct {
	routineService   core.RoutineService
	nutritionService core.NutritionService
	progressService  core.ProgressService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(rs core.RoutineService, ns core.NutritionService, ps core.ProgressService) *PlanHandler {
	return &PlanHandler{routineService: rs, nutritionService: ns, progressService: ps}
}

func mapPlanErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrPremiumRequired):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: "Premium subscription required"})
	case errors.Is(err, core.ErrAIQuotaExceeded):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "AI quota exceeded, try again later"})
	case errors.Is(err, core.ErrOnboardingRequired):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Complete onboarding first"})
	case errors.Is(err, core.ErrNoActiveRoutine):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No active routine"})
	case errors.Is(err, core.ErrNutritionPlanNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No nutrition plan yet"})
	case errors.Is(err, core.ErrProgressNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No progress tracked for this week"})
	case errors.Is(err, core.ErrRoutineNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Routine not found"})
	case errors.Is(err, core.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
	default:
		internalError(c, "Failed to process plan request", err)
	}
}

// parseWeek reads ?week=YYYY-MM-DD, defaulting to the current week.
func parseWeek(c *gin.Context) (time.Time, bool) {
	raw := c.Query("week")
	if raw == "" {
		return time.Now().UTC(), true
	}
	t, err := time.Parse(models.WeekStartLayout, raw)
	if err != nil {
		badRequest(c, "week must be formatted as YYYY-MM-DD", err)
		return time.Time{}, false
	}
	return t, true
}

func (h *PlanHandler) generateRoutine(c *gin.Context, useAI bool) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	routine, err := h.routineService.GenerateRoutine(c.Request.Context(), uid, useAI)
	if err != nil {
		mapPlanErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, routine)
}

// GenerateRoutine handles POST /routines/generate with the rule engine.
func (h *PlanHandler) GenerateRoutine(c *gin.Context) { h.generateRoutine(c, false) }

// GenerateRoutineAI handles POST /routines/generate/ai. Gated by RequirePremium.
func (h *PlanHandler) GenerateRoutineAI(c *gin.Context) { h.generateRoutine(c, true) }

// GetActiveRoutine handles GET /routines/active.
func (h *PlanHandler) GetActiveRoutine(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	routine, err := h.routineService.GetActiveRoutine(c.Request.Context(), uid)
	if err != nil {
		mapPlanErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, routine)
}

// ListRoutines handles GET /routines.
func (h *PlanHandler) ListRoutines(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c, defaultListLimit)
	if !ok {
		return
	}
	routines, err := h.routineService.ListRoutines(c.Request.Context(), uid, limit)
	if err != nil {
		mapPlanErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, routines)
}

// GetProgress handles GET /routines/:routineId/progress?week=.
func (h *PlanHandler) GetProgress(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	week, ok := parseWeek(c)
	if !ok {
		return
	}
	p, err := h.progressService.GetWeek(c.Request.Context(), uid, c.Param("routineId"), week)
	if err != nil {
		mapPlanErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// BackfillProgress handles POST /routines/:routineId/progress/backfill?week=.
func (h *PlanHandler) BackfillProgress(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	week, ok := parseWeek(c)
	if !ok {
		return
	}
	p, err := h.progressService.Backfill(c.Request.Context(), uid, c.Param("routineId"), week)
	if err != nil {
		mapPlanErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PlanHandler) generateNutrition(c *gin.Context, useAI bool) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	plan, err := h.nutritionService.GeneratePlan(c.Request.Context(), uid, useAI)
	if err != nil {
		mapPlanErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GenerateNutrition handles POST /nutrition/generate.
func (h *PlanHandler) GenerateNutrition(c *gin.Context) { h.generateNutrition(c, false) }

// GenerateNutritionAI handles POST /nutrition/generate/ai. Gated by RequirePremium.
func (h *PlanHandler) GenerateNutritionAI(c *gin.Context) { h.generateNutrition(c, true) }

// GetLatestNutrition handles GET /nutrition/latest.
func (h *PlanHandler) GetLatestNutrition(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	plan, err := h.nutritionService.GetLatestPlan(c.Request.Context(), uid)
	if err != nil {
		mapPlanErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
