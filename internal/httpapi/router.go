package httpapi

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/impostor/internal/game"
)

type StatusSource interface {
	Status(groupID string) game.Status
}

// WatcherCounter reports spectator counts per group.
type WatcherCounter interface {
	Watchers(groupID string) int
}

type Deps struct {
	Games       StatusSource
	Spectators  WatcherCounter
	Webhook     gin.HandlerFunc
	CORSOrigins []string
}

// WebhookPath is where Telegram delivers updates in webhook mode.
const WebhookPath = "/telegram/webhook"

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	if len(d.CORSOrigins) > 0 {
		r.Use(corsMiddleware(d.CORSOrigins))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	r.GET("/api/groups/:id/status", func(c *gin.Context) {
		groupID := c.Param("id")
		resp := gin.H{"status": d.Games.Status(groupID)}
		if d.Spectators != nil {
			resp["spectators"] = d.Spectators.Watchers(groupID)
		}
		c.JSON(http.StatusOK, resp)
	})

	if d.Webhook != nil {
		r.POST(WebhookPath, d.Webhook)
	}
	return r
}

// requestLogger logs every request except the socket.io polling noise.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		log.Info().Str("method", c.Request.Method).Str("path", path).
			Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type"}
	if slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
