package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quiz-progression-service/internal/app"
)

// CacheTTLs holds the per-route response cache tiers.
type CacheTTLs struct {
	Gamification time.Duration
	Modules      time.Duration
	Categories   time.Duration
}

// RouterConfig tunes the REST surface.
type RouterConfig struct {
	AllowOrigins []string
	TTLs         CacheTTLs
}

// NewRouter assembles the gin engine: CORS, the trusted-identity
// middleware on protected groups and the response cache on read routes.
func NewRouter(h *Handlers, ws *FeedHandler, cache app.Cache, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-User-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")

	// Categories are near-static: cached for anonymous and named users alike.
	api.GET("/categories", CacheResponses(cache, cfg.TTLs.Categories), h.ListCategories)

	quizzes := api.Group("/quizzes", RequireUser())
	{
		quizzes.POST("/:id/submit", h.SubmitQuiz)
		quizzes.GET("/:id/attempts", h.AttemptStatus)
		quizzes.GET("/:id/can-attempt", h.CanAttempt)
		quizzes.POST("/:id/attempts", h.RegisterAttempt)
	}

	modules := api.Group("/modules", RequireUser())
	{
		modules.GET("", CacheResponses(cache, cfg.TTLs.Modules), h.ListModules)
		modules.POST("/:id/complete", h.CompleteModule)
	}

	gamification := api.Group("/gamification", RequireUser())
	{
		gamification.GET("/stats", CacheResponses(cache, cfg.TTLs.Gamification), h.Stats)
		gamification.GET("/feed", ws.Serve)
	}

	admin := api.Group("/admin", RequireUser())
	{
		admin.POST("/attempts/reset", h.ResetAttempts)
		admin.POST("/attempts/cleanup", h.CleanupAttempts)
	}

	return r
}
