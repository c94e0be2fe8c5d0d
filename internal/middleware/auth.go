package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fitcoach-backend/internal/models"
)

// Context keys set by VerifyToken.
const (
	ContextUserID = "userID"
	ContextUser   = "user"
)

// ErrorResponse mirrors api.ErrorResponse; api imports this package, so it cannot be shared.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TokenVerifier verifies Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserProvisioner loads the caller's profile, creating it on first sign-in.
type UserProvisioner interface {
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error)
}

// AuthMiddleware provides Gin middleware for Firebase token authentication.
type AuthMiddleware struct {
	verifier TokenVerifier
	users    UserProvisioner
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier TokenVerifier, users UserProvisioner, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil || users == nil {
		panic("AuthMiddleware requires a token verifier and a user provisioner")
	}
	return &AuthMiddleware{verifier: verifier, users: users, logger: logger}
}

// VerifyToken checks the Bearer token, provisions the user document on first
// sign-in and stores both the UID and the *models.User in the Gin context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		ctx := c.Request.Context()
		token, err := m.verifier.VerifyIDToken(ctx, parts[1])
		if err != nil {
			m.logger.Warn("Rejected Firebase ID token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		email, _ := token.Claims["email"].(string)
		name, _ := token.Claims["name"].(string)
		picture, _ := token.Claims["picture"].(string)

		user, created, err := m.users.GetOrCreate(ctx, token.UID, email, name, picture)
		if err != nil {
			m.logger.Error("Failed to load user profile", zap.String("userID", token.UID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load user profile"})
			return
		}
		if created {
			m.logger.Info("Provisioned user profile on first sign-in", zap.String("userID", token.UID))
		}

		c.Set(ContextUserID, token.UID)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// CurrentUser returns the profile stored by VerifyToken.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}
