package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"astromania_back_end/internal/database"
)

const (
	ContactMaxAttempts = 5
	ContactCooldown    = 10 * time.Minute
)

// ContactRateLimit borne le nombre d'envois du formulaire de contact par
// adresse IP, compteur dans Redis.
func ContactRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := "contact_attempts:" + c.ClientIP()
		cooldownKey := "contact_cooldown:" + c.ClientIP()

		if database.Redis.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := database.Redis.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop d'envois. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		attempts, _ := database.Redis.Get(ctx, key).Int()
		if attempts >= ContactMaxAttempts {
			database.Redis.Set(ctx, cooldownKey, "1", ContactCooldown)
			database.Redis.Del(ctx, key)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Trop d'envois, réessayez plus tard",
			})
			c.Abort()
			return
		}

		pipe := database.Redis.TxPipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ContactCooldown)
		pipe.Exec(ctx)

		c.Next()
	}
}
