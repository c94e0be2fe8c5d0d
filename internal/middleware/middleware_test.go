package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fitcoach-backend/internal/config"
	"fitcoach-backend/internal/models"
)

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if idToken != "good" {
		return nil, errors.New("token expired")
	}
	return &auth.Token{UID: "u1", Claims: map[string]interface{}{"email": "a@example.com", "name": "Ana"}}, nil
}

type stubUsers struct {
	users map[string]*models.User
	err   error
	seen  []string
}

func (s *stubUsers) GetOrCreate(_ context.Context, userID, email, displayName, _ string) (*models.User, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	s.seen = append(s.seen, email+"|"+displayName)
	if u, ok := s.users[userID]; ok {
		return u, false, nil
	}
	u := &models.User{ID: userID, Email: email, DisplayName: displayName}
	s.users[userID] = u
	return u, true, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(users *stubUsers, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{NewAuthMiddleware(stubVerifier{}, users, zap.NewNop()).VerifyToken()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"uid": c.GetString(ContextUserID), "email": u.Email})
	})
	r.GET("/me", handlers...)
	return r
}

func doGet(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyToken(t *testing.T) {
	users := &stubUsers{users: map[string]*models.User{}}
	r := newRouter(users)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Token good").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer bad").Code)

	w := doGet(r, "bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"u1","email":"a@example.com"}`, w.Body.String())
	assert.Equal(t, []string{"a@example.com|Ana"}, users.seen)
	assert.Contains(t, users.users, "u1")
}

func TestVerifyToken_ProvisioningFailure(t *testing.T) {
	r := newRouter(&stubUsers{users: map[string]*models.User{}, err: errors.New("firestore down")})
	assert.Equal(t, http.StatusInternalServerError, doGet(r, "Bearer good").Code)
}

func TestRequirePremium(t *testing.T) {
	users := &stubUsers{users: map[string]*models.User{}}
	r := newRouter(users, RequirePremium())

	assert.Equal(t, http.StatusPaymentRequired, doGet(r, "Bearer good").Code)

	users.users["u1"].IsPremium = true
	assert.Equal(t, http.StatusOK, doGet(r, "Bearer good").Code)
}

func TestRequirePremium_WithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequirePremium(), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
}

func TestRecoveryAndRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(RequestLogger(logger), RecoveryMiddleware(logger))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom?x=1", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())

	requests := logs.FilterMessage("Incoming Request").All()
	require.Len(t, requests, 1)
	assert.Equal(t, zap.ErrorLevel, requests[0].Level)
	assert.Equal(t, "x=1", requests[0].ContextMap()["query"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	requests = logs.FilterMessage("Incoming Request").All()
	require.Len(t, requests, 2)
	assert.Equal(t, zap.WarnLevel, requests[1].Level)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware(&config.Config{ClientURL: "https://app.fitcoach.test, https://admin.fitcoach.test"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://admin.fitcoach.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://admin.fitcoach.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
