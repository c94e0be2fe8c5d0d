package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcoach-backend/internal/middleware"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// URLResponse carries a redirect target such as a checkout or portal URL.
type URLResponse struct {
	URL string `json:"url"`
}

// MedicalNotesResponse returns the decrypted onboarding notes.
type MedicalNotesResponse struct {
	MedicalNotes string `json:"medicalNotes"`
}

// CoachCodeResponse returns a freshly generated coach code.
type CoachCodeResponse struct {
	CoachCode string `json:"coachCode"`
}

// userIDFrom reads the UID set by the auth middleware and answers 401 when absent.
func userIDFrom(c *gin.Context) (string, bool) {
	uid := c.GetString(middleware.ContextUserID)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return "", false
	}
	return uid, true
}

// internalError records err for the request logger and hides it from the client.
func internalError(c *gin.Context, msg string, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
