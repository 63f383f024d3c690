package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CronAuth gates scheduled-job endpoints behind a static bearer secret.
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(secret) == "" {
			log.Println("[CRON] [ERROR] CRON_SECRET not configured")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "cron disabled"})
			return
		}

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			log.Println("[CRON] [ERROR] invalid cron token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(secret)) != 1 {
			log.Println("[CRON] [ERROR] cron token mismatch")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}
