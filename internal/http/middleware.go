package http

import (
	"net/http"
	"strings"

	"github.com/Ashen-sam/issue-tracker-api/internal/config"
	"github.com/Ashen-sam/issue-tracker-api/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const ctxUserID = "userID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info().
			Str("m", c.Request.Method).
			Str("p", c.FullPath()).
			Int("s", c.Writer.Status()).
			Str("id", c.Writer.Header().Get("X-Request-ID")).
			Msg("http")
	}
}

func corsMiddleware(cfg config.Config) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}
	if len(cfg.CORSOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.CORSOrigins
	}
	return cors.New(cc)
}

// requireAuth verifies the bearer token and stashes the caller's id on
// the request context. A bare token without the Bearer prefix is
// accepted too.
func requireAuth(tokens *services.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "no token, authorization denied"})
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		id, err := tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "token is not valid"})
			return
		}
		c.Set(ctxUserID, id)
		c.Next()
	}
}

func currentUser(c *gin.Context) primitive.ObjectID {
	v, _ := c.Get(ctxUserID)
	id, _ := v.(primitive.ObjectID)
	return id
}
