package handlers

import (
	"net/http"
	"time"

	"eldertales_api/identity"
	"eldertales_api/middlewares"
	"eldertales_api/notifications"
	"eldertales_api/replay"
	"eldertales_api/social"
	"eldertales_api/store"
	"eldertales_api/tasks"
	"eldertales_api/tools"
	"eldertales_api/types"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// Dependencies is everything the HTTP surface needs.
type Dependencies struct {
	Logger   tools.Logger
	Service  *social.Service
	Store    store.ContentStore
	Verifier identity.Verifier
	// ReplayCache enables Idempotency-Key handling on mutating routes when set.
	ReplayCache    replay.Cache
	IdempotencyTTL time.Duration
	// Sender delivers pushes for the Cloud Tasks target. The route is not mounted without it.
	Sender      notifications.Sender
	TaskSecret  string
	CORSOrigins []string
	EnablePprof bool
}

func NewRouter(deps Dependencies) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	// Disable TrustedProxies feature
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Cache-Control", types.IDEMPOTENCY_KEY_HEADER},
			ExposeHeaders:    []string{"Content-Length", types.IDEMPOTENCY_REPLAYED_HEADER},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if deps.EnablePprof {
		pprof.Register(r)
	}

	logger := deps.Logger
	svc := deps.Service

	r.GET("/health", HealthHandler())

	// Define the routes for the tasks handler
	if deps.Sender != nil {
		taskGroup := r.Group(types.CLOUD_TASKS_HANDLER_PATH)
		taskGroup.Use(middlewares.TaskAuthMiddleware(logger, deps.TaskSecret))
		taskGroup.POST("", tasks.NotificationTaskHandler(logger, deps.Sender, deps.Store))
	}

	authenticated := []gin.HandlerFunc{middlewares.AuthMiddleware(logger, deps.Verifier)}
	if deps.ReplayCache != nil {
		authenticated = append(authenticated, middlewares.IdempotencyMiddleware(logger, deps.ReplayCache, deps.IdempotencyTTL))
	}
	media := middlewares.MediaValidationMiddleware(logger)

	postsGroup := r.Group("/post")
	postsGroup.Use(authenticated...)
	postsGroup.POST("", media, CreatePostHandler(logger, svc))
	postsGroup.GET("", OwnPostsHandler(logger, svc))
	postsGroup.GET("/getAllOtherPosts", OtherPostsHandler(logger, svc))
	postsGroup.GET("/search", SearchPostsHandler(logger, svc))
	postsGroup.GET("/saved/save", SavedPostsHandler(logger, svc))
	postsGroup.POST("/save/:postId", MembershipHandler(logger, svc, social.KindSave, "postId", true, "Post saved successfully"))
	postsGroup.DELETE("/save/:postId", MembershipHandler(logger, svc, social.KindSave, "postId", false, "Post unsaved successfully"))
	postsGroup.GET("/:postId", PostDetailHandler(logger, svc))
	postsGroup.PUT("/:postId", media, UpdatePostHandler(logger, svc))
	postsGroup.DELETE("/:postId", DeletePostHandler(logger, svc))
	postsGroup.GET("/:postId/posts", UserPostsHandler(logger, svc))
	postsGroup.POST("/:postId/comments", AddCommentHandler(logger, svc))
	postsGroup.PUT("/:postId/comments/:commentId", EditCommentHandler(logger, svc))
	postsGroup.DELETE("/:postId/comments/:commentId", DeleteCommentHandler(logger, svc))
	postsGroup.PUT("/:postId/like", LikeToggleHandler(logger, svc))
	postsGroup.PUT("/:postId/save", SaveToggleHandler(logger, svc))
	postsGroup.PUT("/:postId/savePost", MembershipHandler(logger, svc, social.KindSave, "postId", true, "Post saved successfully"))
	postsGroup.PUT("/:postId/unsavePost", MembershipHandler(logger, svc, social.KindSave, "postId", false, "Post unsaved successfully"))

	usersGroup := r.Group("/user")
	usersGroup.Use(authenticated...)
	usersGroup.POST("/register", RegisterUserHandler(logger, svc))
	usersGroup.GET("/current-user", CurrentUserHandler(logger, svc))
	usersGroup.GET("/user/:id", UserHandler(logger, svc))
	usersGroup.GET("/followers", FollowersHandler(logger, svc))
	usersGroup.GET("/following", FollowingHandler(logger, svc))
	usersGroup.POST("/:id/follow", MembershipHandler(logger, svc, social.KindFollow, "id", true, "User followed successfully"))
	usersGroup.POST("/:id/unfollow", MembershipHandler(logger, svc, social.KindFollow, "id", false, "User unfollowed successfully"))
	usersGroup.PUT("/:id/follow", FollowToggleHandler(logger, svc))

	messagingGroup := r.Group("/api/messaging")
	messagingGroup.Use(authenticated...)
	messagingGroup.POST("", SetMessagingRegistrationToken(logger, deps.Store))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"statusCode": http.StatusNotFound,
			"data":       gin.H{},
			"message":    "Route not found",
			"success":    false,
			"error":      "NotFound",
		})
	})

	return r, nil
}
