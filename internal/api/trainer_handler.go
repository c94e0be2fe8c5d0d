package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcoach-backend/internal/core"
	"fitcoach-backend/internal/middleware"
	"fitcoach-backend/internal/models"
)

// TrainerHandler serves coach profiles, student links, assigned routines and team challenges.
type TrainerHandler struct {
	trainerService   core.TrainerService
	assignedService  core.AssignedRoutineService
	challengeService core.ChallengeService
}

// NewTrainerHandler creates a new TrainerHandler.
func NewTrainerHandler(ts core.TrainerService, as core.AssignedRoutineService, cs core.ChallengeService) *TrainerHandler {
	return &TrainerHandler{trainerService: ts, assignedService: as, challengeService: cs}
}

func mapTrainerErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrTrainerNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Trainer profile not found"})
	case errors.Is(err, core.ErrCoachCodeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Coach code not found"})
	case errors.Is(err, core.ErrAssignedRoutineNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Assigned routine not found"})
	case errors.Is(err, core.ErrChallengeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Challenge not found"})
	case errors.Is(err, core.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found"})
	case errors.Is(err, core.ErrAlreadyTrainer):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Already registered as a trainer"})
	case errors.Is(err, core.ErrAlreadyLinked):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Already linked to a coach"})
	case errors.Is(err, core.ErrAlreadyJoined):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Already joined this challenge"})
	case errors.Is(err, core.ErrChallengeNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Challenge is not active"})
	case errors.Is(err, core.ErrNotLinked):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "No coach linked"})
	case errors.Is(err, core.ErrSelfLink):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "You cannot use your own coach code"})
	case errors.Is(err, core.ErrNotStudentOfTrainer):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "User is not your student"})
	case errors.Is(err, core.ErrInvalidChallenge), errors.Is(err, core.ErrUnknownExercise):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: err.Error()})
	case errors.Is(err, core.ErrCodeExhausted):
		internalError(c, "Could not allocate a coach code, try again", err)
	default:
		internalError(c, "Failed to process trainer request", err)
	}
}

// RegisterTrainer handles POST /trainers.
func (h *TrainerHandler) RegisterTrainer(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	var req models.RegisterTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}
	t, err := h.trainerService.RegisterTrainer(c.Request.Context(), uid, req)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GetMyTrainerProfile handles GET /trainers/me.
func (h *TrainerHandler) GetMyTrainerProfile(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	t, err := h.trainerService.GetTrainer(c.Request.Context(), uid)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Dashboard handles GET /trainers/me/dashboard.
func (h *TrainerHandler) Dashboard(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	d, err := h.trainerService.Dashboard(c.Request.Context(), uid)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// RegenerateCode handles POST /trainers/me/code.
func (h *TrainerHandler) RegenerateCode(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	code, err := h.trainerService.RegenerateCode(c.Request.Context(), uid)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CoachCodeResponse{CoachCode: code})
}

// LinkCoach handles POST /coach.
func (h *TrainerHandler) LinkCoach(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	var req models.LinkCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}
	t, err := h.trainerService.LinkStudent(c.Request.Context(), uid, req.CoachCode)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// UnlinkCoach handles DELETE /coach.
func (h *TrainerHandler) UnlinkCoach(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	if err := h.trainerService.UnlinkStudent(c.Request.Context(), uid); err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Coach unlinked"})
}

// AssignRoutine handles POST /trainers/me/assigned-routines.
func (h *TrainerHandler) AssignRoutine(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	var req models.AssignRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}
	a, err := h.assignedService.Assign(c.Request.Context(), uid, req)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// ListAssignedByMe handles GET /trainers/me/assigned-routines.
func (h *TrainerHandler) ListAssignedByMe(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	list, err := h.assignedService.ListForTrainer(c.Request.Context(), uid)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DeleteAssigned handles DELETE /trainers/me/assigned-routines/:assignedId.
func (h *TrainerHandler) DeleteAssigned(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	if err := h.assignedService.Delete(c.Request.Context(), uid, c.Param("assignedId")); err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAssignedToMe handles GET /assigned-routines.
func (h *TrainerHandler) ListAssignedToMe(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	list, err := h.assignedService.ListForStudent(c.Request.Context(), uid)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateChallenge handles POST /trainers/me/challenges.
func (h *TrainerHandler) CreateChallenge(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	var req models.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}
	ch, err := h.challengeService.Create(c.Request.Context(), uid, req)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

// ListMyChallenges handles GET /trainers/me/challenges.
func (h *TrainerHandler) ListMyChallenges(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	list, err := h.challengeService.List(c.Request.Context(), uid)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListCoachChallenges handles GET /challenges: the challenges of the caller's coach.
func (h *TrainerHandler) ListCoachChallenges(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not found in context"})
		return
	}
	if user.CoachID == "" {
		c.JSON(http.StatusOK, []*models.TeamChallenge{})
		return
	}
	list, err := h.challengeService.List(c.Request.Context(), user.CoachID)
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// JoinChallenge handles POST /challenges/:challengeId/join.
func (h *TrainerHandler) JoinChallenge(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		return
	}
	ch, err := h.challengeService.Join(c.Request.Context(), uid, c.Param("challengeId"))
	if err != nil {
		mapTrainerErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}
