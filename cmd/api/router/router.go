package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"folio/cmd/api/handlers"
	"folio/cmd/api/middleware"
	apiservices "folio/cmd/api/services"
	_ "folio/docs"
	"folio/services"
)

const slowRequestThreshold = time.Second

// Deps 는 라우터가 사용하는 서비스 묶음이다.
type Deps struct {
	Posts    *services.PostService
	Drafts   *services.DraftService
	Auth     *apiservices.AuthService
	Images   handlers.ImageUploader
	PingFunc func(ctx context.Context) error
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace(), middleware.SlowRequestLogger(slowRequestThreshold))

	// Health check
	r.GET("/health", handlers.HealthHandler(d.PingFunc))

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// v1 routes
	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthHandler(d.PingFunc))

		api.GET("/posts", handlers.ListPostsHandler(d.Posts))
		api.GET("/posts/:slug", handlers.GetPostHandler(d.Posts))
		api.GET("/posts/:slug/adjacent", handlers.GetAdjacentPostsHandler(d.Posts))

		api.POST("/auth/login", handlers.LoginHandler(d.Auth))
		api.POST("/auth/logout", handlers.LogoutHandler(d.Auth))
		api.GET("/auth/me", handlers.CurrentUserHandler(d.Auth))
	}

	admin := api.Group("/admin", middleware.RequireSession(d.Auth))
	{
		admin.GET("/posts", handlers.AdminListPostsHandler(d.Posts))
		admin.POST("/posts", handlers.CreatePostHandler(d.Posts))
		admin.GET("/posts/:id", handlers.AdminGetPostHandler(d.Posts))
		admin.PATCH("/posts/:id", handlers.UpdatePostHandler(d.Posts))
		admin.DELETE("/posts/:id", handlers.DeletePostHandler(d.Posts))

		admin.GET("/posts/:id/draft", handlers.GetDraftHandler(d.Drafts))
		admin.PUT("/posts/:id/draft", handlers.SaveDraftHandler(d.Drafts))
		admin.DELETE("/posts/:id/draft", handlers.DiscardDraftHandler(d.Drafts))

		admin.POST("/images", handlers.UploadImageHandler(d.Images))
	}

	return r
}

// WithCORS 는 프론트엔드 origin 에서의 호출을 허용한다. origins 가 비어 있으면 모든 origin 을 허용한다.
func WithCORS(h http.Handler, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Span-Id"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           600,
	})
	return c.Handler(h)
}
