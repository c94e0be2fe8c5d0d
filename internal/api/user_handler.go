package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fitcoach-backend/internal/catalog"
	"fitcoach-backend/internal/core"
	"fitcoach-backend/internal/models"
	"fitcoach-backend/internal/weights"
)

// UserHandler handles profile, onboarding and exercise catalog endpoints.
type UserHandler struct {
	userService   core.UserService
	weightService core.WeightService
	catalog       *catalog.Catalog
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService, ws core.WeightService, cat *catalog.Catalog) *UserHandler {
	return &UserHandler{userService: us, weightService: ws, catalog: cat}
}

func mapUserErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
	case errors.Is(err, core.ErrInvalidProfile):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid profile data", Details: err.Error()})
	case errors.Is(err, core.ErrOnboardingRequired):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Onboarding not completed"})
	case errors.Is(err, core.ErrUnknownExercise):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Exercise not found", Details: err.Error()})
	default:
		internalError(c, "Failed to process user request", err)
	}
}

// GetCurrentUserProfile handles GET /users/me.
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), uid)
	if err != nil {
		mapUserErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CompleteOnboarding handles POST /users/me/onboarding.
func (h *UserHandler) CompleteOnboarding(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	var req models.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}
	user, err := h.userService.CompleteOnboarding(c.Request.Context(), uid, req)
	if err != nil {
		mapUserErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PATCH /users/me.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}
	user, err := h.userService.UpdateProfile(c.Request.Context(), uid, req)
	if err != nil {
		mapUserErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetMedicalNotes handles GET /users/me/medical-notes.
func (h *UserHandler) GetMedicalNotes(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	notes, err := h.userService.MedicalNotes(c.Request.Context(), uid)
	if err != nil {
		mapUserErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, MedicalNotesResponse{MedicalNotes: notes})
}

// ListExercises handles GET /exercises, optionally filtered by ?muscleGroup= and
// a comma-separated ?equipment= list.
func (h *UserHandler) ListExercises(c *gin.Context) {
	var equipment map[string]bool
	if raw := c.Query("equipment"); raw != "" {
		equipment = make(map[string]bool)
		for _, e := range strings.Split(raw, ",") {
			if e = strings.TrimSpace(e); e != "" {
				equipment[e] = true
			}
		}
	}
	muscle := c.Query("muscleGroup")
	if muscle != "" {
		c.JSON(http.StatusOK, h.catalog.Filter(muscle, equipment))
		return
	}
	all := h.catalog.All()
	if equipment == nil {
		c.JSON(http.StatusOK, all)
		return
	}
	out := make([]catalog.Exercise, 0, len(all))
	for _, ex := range all {
		if ex.Equipment == weights.EquipmentBodyweight || equipment[ex.Equipment] {
			out = append(out, ex)
		}
	}
	c.JSON(http.StatusOK, out)
}

// SuggestWeight handles GET /exercises/:exerciseId/suggested-weight.
func (h *UserHandler) SuggestWeight(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	suggestion, err := h.weightService.SuggestWeight(c.Request.Context(), uid, c.Param("exerciseId"))
	if err != nil {
		mapUserErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}
