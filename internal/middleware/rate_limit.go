package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"foodcourt_back_end/internal/database"
)

const (
	LoginMaxAttempts = 5
	LoginCooldown    = 15 * time.Minute
)

// LoginRateLimit limite les tentatives de connexion par email (compteurs
// Redis). Sans Redis, pas de limitation.
func LoginRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next()
			return
		}

		// Lire le body sans le consommer
		bodyBytes, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
		}
		if err := json.Unmarshal(bodyBytes, &input); err != nil || input.Email == "" {
			c.Next()
			return
		}

		ctx := context.Background()
		cooldownKey := "login_cooldown:" + input.Email
		if database.Redis.Exists(ctx, cooldownKey).Val() > 0 {
			ttl := database.Redis.TTL(ctx, cooldownKey).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RecordFailedLogin incrémente le compteur d'échecs et déclenche le cooldown
// au-delà du seuil
func RecordFailedLogin(email string) {
	if database.Redis == nil {
		return
	}
	ctx := context.Background()
	key := "login_attempts:" + email

	attempts := database.Redis.Incr(ctx, key).Val()
	database.Redis.Expire(ctx, key, LoginCooldown)

	if attempts >= LoginMaxAttempts {
		database.Redis.Set(ctx, "login_cooldown:"+email, 1, LoginCooldown)
		database.Redis.Del(ctx, key)
	}
}

// ResetLoginAttempts remet le compteur à zéro après une connexion réussie
func ResetLoginAttempts(email string) {
	if database.Redis == nil {
		return
	}
	ctx := context.Background()
	database.Redis.Del(ctx, "login_attempts:"+email, "login_cooldown:"+email)
}
