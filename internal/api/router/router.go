package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	sentrygin "github.com/getsentry/sentry-go/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/followgraph/docs"

	"github.com/d60-Lab/followgraph/config"
	"github.com/d60-Lab/followgraph/internal/api/handler"
	"github.com/d60-Lab/followgraph/internal/api/middleware"
)

const streamPath = "/api/v1/realtime"

// New 组装 gin 引擎与全部路由
func New(cfg *config.Config, h *handler.Handler) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode, gin.DebugMode:
		gin.SetMode(cfg.Server.Mode)
	}
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger())
	// SSE 需要逐帧 flush，不能压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{streamPath})))

	r.GET("/health", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	auth := middleware.Auth(cfg.JWT.Secret, cfg.JWT.Issuer)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.FollowRPS, cfg.RateLimit.FollowBurst)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	{
		follow := v1.Group("/follow")
		follow.GET("/counts/:userId", h.Counts)
		follow.GET("/followers/:userId", h.ListFollowers)
		follow.GET("/following/:userId", h.ListFollowing)

		authed := follow.Group("", auth)
		authed.POST("/request", limiter.Handler(), h.RequestFollow)
		authed.POST("/accept/:edgeId", h.AcceptRequest)
		authed.POST("/reject/:edgeId", h.RejectRequest)
		authed.POST("/unfollow", h.Unfollow)
		authed.GET("/status", h.Status)
		authed.GET("/requests", h.ListIncomingRequests)
		authed.GET("/requests/sent", h.ListOutgoingRequests)

		notifications := v1.Group("/notifications", auth)
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadCount)
		notifications.POST("/read/:id", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
		notifications.DELETE("/:id", h.DeleteNotification)
	}

	// 长连接不受请求超时限制
	r.GET(streamPath+"/stream", auth, h.Stream)

	return r
}
