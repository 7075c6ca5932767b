package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/ginext"

	"clubhub/cmd/middleware"
	"clubhub/internal/api/handlers"
)

type Routers struct {
	Mode     string
	Handlers *handlers.Handlers
	Auth     gin.HandlerFunc
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New(r.Mode)

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.New(corsConfig()))

	app.GET("/healthz", func(c *ginext.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := app.Group("/v1", r.Auth)
	r.Handlers.Register(apiGroup.RouterGroup)

	return app
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	return cfg
}
