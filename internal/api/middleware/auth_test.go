package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"example.com/tripplanner/config"
	"example.com/tripplanner/internal/apperrors"
	"example.com/tripplanner/internal/cache"
	"example.com/tripplanner/internal/models"
	"example.com/tripplanner/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, apiKey *models.APIKey) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

func (m *MockAPIKeyRepository) GetByKey(ctx context.Context, key string) (*models.APIKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) Update(ctx context.Context, apiKey *models.APIKey) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

func echoCaller(c *gin.Context) {
	caller := CallerFromContext(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id":    caller.UserID.String(),
		"share_code": caller.ShareCode,
	})
}

func sessionRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	// A disabled cache misses every session lookup
	sessions, err := cache.NewRedisCache(config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/probe", SessionAuth(sessions), echoCaller)
	return router
}

func TestSessionAuthRequiresCookieOrShareCode(t *testing.T) {
	router := sessionRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAuthShareCodeAloneIsAccepted(t *testing.T) {
	router := sessionRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/probe?share_code=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "abc")
}

func TestSessionAuthRejectsUnknownSession(t *testing.T) {
	router := sessionRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func apiKeyRouter(repo *MockAPIKeyRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/probe", APIKeyAuth(repo), echoCaller)
	return router
}

func TestAPIKeyAuthResolvesOwner(t *testing.T) {
	repo := new(MockAPIKeyRepository)
	userID := uuid.New()
	repo.On("GetByKey", mock.Anything, "good-key").Return(&models.APIKey{
		ID:     uuid.New(),
		Key:    "good-key",
		UserID: userID,
	}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*models.APIKey")).Return(nil).Maybe()

	router := apiKeyRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer good-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), userID.String())
}

func TestAPIKeyAuthRejectsExpiredKey(t *testing.T) {
	repo := new(MockAPIKeyRepository)
	expired := time.Now().Add(-time.Hour)
	repo.On("GetByKey", mock.Anything, "old-key").Return(&models.APIKey{
		ID:        uuid.New(),
		Key:       "old-key",
		UserID:    uuid.New(),
		ExpiresAt: &expired,
	}, nil)

	router := apiKeyRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer old-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyAuthRejectsUnknownKeyAndBadHeader(t *testing.T) {
	repo := new(MockAPIKeyRepository)
	repo.On("GetByKey", mock.Anything, "bogus").Return(nil, apperrors.ErrNotFound)

	router := apiKeyRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Basic creds")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCallerFromContextZeroValueWhenUnset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	caller := CallerFromContext(c)
	require.Equal(t, services.Caller{}, caller)
	require.False(t, caller.Authenticated())
}
