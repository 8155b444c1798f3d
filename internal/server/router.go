// Package server は HTTP ルーターの組み立てを提供します。
package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yourusername/inkwell/internal/auth"
	"github.com/yourusername/inkwell/internal/config"
	"github.com/yourusername/inkwell/internal/posts"
	"github.com/yourusername/inkwell/internal/sessionstore"
	"github.com/yourusername/inkwell/internal/users"
)

// Models はスキーマを構成するモデルです。依存される側から順に並べます。
var Models = []any{&users.User{}, &posts.Post{}}

// New はミドルウェアとルートを登録した gin.Engine を返します。
func New(cfg *config.Config, db *gorm.DB, store sessions.Store, logger *log.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	if origins := splitOrigins(cfg.CORSAllowedOrigins); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-CSRF-Token",
		}
		corsConfig.ExposeHeaders = []string{"X-CSRF-Token", "Location"}
		router.Use(cors.New(corsConfig))
	}

	// セッションとユーザー解決の前に登録し、DB や Redis の障害に左右されないようにする
	router.GET("/health", handleHealth)

	router.Use(sessions.Sessions(sessionstore.CookieName, store))

	authManager := auth.NewManager(users.NewStore(db, cfg.BcryptCost), logger)
	router.Use(authManager.LoadUser())

	setupRoutes(router, authManager, posts.NewHandler(posts.NewRepository(db), auth.CurrentUser, logger))
	return router
}

func setupRoutes(router *gin.Engine, authManager *auth.Manager, blog *posts.Handler) {
	authRoutes := router.Group("/auth")
	{
		authRoutes.GET("/register", authManager.RegisterForm)
		authRoutes.POST("/register", authManager.Register)
		authRoutes.GET("/login", authManager.LoginForm)
		authRoutes.POST("/login", authManager.Login)
		authRoutes.GET("/logout", authManager.Logout)
	}

	router.GET("/", blog.Index)

	protected := router.Group("")
	protected.Use(authManager.RequireLogin(), authManager.VerifyCSRF())
	{
		protected.GET("/create", blog.CreateForm)
		protected.POST("/create", blog.Create)
		protected.GET("/:id/update", blog.UpdateForm)
		protected.POST("/:id/update", blog.Update)
		protected.POST("/:id/delete", blog.Delete)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "inkwell",
	})
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
