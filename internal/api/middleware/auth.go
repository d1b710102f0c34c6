package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"example.com/tripplanner/internal/cache"
	"example.com/tripplanner/internal/repositories"
	"example.com/tripplanner/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Context keys
const (
	CallerContextKey = "caller"

	// SessionCookieName is the cookie the browser binding authenticates with
	SessionCookieName = "session"

	// ShareCodeParam is the query parameter carrying a share-code read grant
	ShareCodeParam = "share_code"
)

// SessionAuth authenticates the browser binding. A session cookie resolves
// to a user through Redis; a share_code query parameter may ride along for
// read access to someone else's trip, or stand alone for anonymous reads.
func SessionAuth(sessions *cache.RedisCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := services.Caller{
			ShareCode: c.Query(ShareCodeParam),
		}

		token, err := c.Cookie(SessionCookieName)
		if err == nil && token != "" {
			userID, err := sessions.SessionUser(c.Request.Context(), token)
			if err != nil {
				log.Warn().Err(err).Msg("Session lookup failed")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
				c.Abort()
				return
			}
			caller.UserID = userID
		}

		if !caller.Authenticated() && caller.ShareCode == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		c.Set(CallerContextKey, caller)
		c.Next()
	}
}

// APIKeyAuth authenticates the external binding from the Authorization
// header. Keys act as their owning user; share codes do not apply here.
func APIKeyAuth(repo repositories.APIKeyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format. Expected: 'Bearer {token}'"})
			c.Abort()
			return
		}

		apiKey, err := repo.GetByKey(c.Request.Context(), parts[1])
		if err != nil {
			log.Warn().Err(err).Msg("Invalid API key")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		if apiKey.ExpiresAt != nil && apiKey.ExpiresAt.Before(time.Now()) {
			log.Warn().Str("key_id", apiKey.ID.String()).Msg("Expired API key")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key expired"})
			c.Abort()
			return
		}

		// Update last used timestamp without blocking the request
		now := time.Now()
		apiKey.LastUsedAt = &now
		go func() {
			if err := repo.Update(context.Background(), apiKey); err != nil {
				log.Warn().Err(err).Str("key_id", apiKey.ID.String()).Msg("Failed to record API key use")
			}
		}()

		c.Set(CallerContextKey, services.Caller{UserID: apiKey.UserID})
		c.Next()
	}
}

// CallerFromContext retrieves the caller placed by an auth middleware
func CallerFromContext(c *gin.Context) services.Caller {
	value, exists := c.Get(CallerContextKey)
	if !exists {
		return services.Caller{}
	}
	caller, ok := value.(services.Caller)
	if !ok {
		return services.Caller{}
	}
	return caller
}
