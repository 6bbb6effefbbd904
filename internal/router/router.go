package router

import (
	"net/http"

	"quill/internal/handlers"
	"quill/internal/metrics"
	"quill/internal/middleware"
	"quill/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Log        *zap.Logger
	Users      *services.UserService
	Posts      *services.PostService
	Comments   *services.CommentService
	Tags       *services.TagService
	Categories *services.CategoryService
	Contacts   *services.ContactService
	Engagement *services.EngagementService
	// LoginLimiter throttles the token endpoint; nil disables it.
	LoginLimiter *middleware.RateLimiter
	MediaPath    string
	SiteURL      string
	SiteTitle    string
}

// New builds the engine with every route under /api/v1.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.Logger(d.Log), middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if d.MediaPath != "" {
		r.Static("/media", d.MediaPath)
	}

	feed := handlers.NewFeedHandler(d.Posts, d.SiteURL, d.SiteTitle)
	r.GET("/feed.xml", feed.RSS)
	r.GET("/sitemap.xml", feed.Sitemap)
	r.GET("/robots.txt", feed.RobotsTxt)

	api := r.Group(services.APIPrefix)
	api.Use(middleware.LoadUser(d.Users))
	RegisterRoutes(api, d)
	return r
}

func RegisterRoutes(api *gin.RouterGroup, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Users)
	userHandler := handlers.NewUserHandler(d.Users, d.Engagement)
	postHandler := handlers.NewPostHandler(d.Posts, d.Contacts)
	commentHandler := handlers.NewCommentHandler(d.Comments)
	tagHandler := handlers.NewTagHandler(d.Tags)
	categoryHandler := handlers.NewCategoryHandler(d.Categories)

	authed := middleware.AuthRequired()
	superuser := middleware.SuperuserRequired()

	// Users and authentication
	user := api.Group("/user")
	{
		login := []gin.HandlerFunc{authHandler.Login}
		if d.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{d.LoginLimiter.Handler()}, login...)
		}
		user.POST("/login/access-token", login...)
		user.POST("/password-recovery/:email", authHandler.RecoverPassword)
		user.POST("/reset-password/", authHandler.ResetPassword)
		user.POST("/open", userHandler.Register)

		user.GET("/", authed, superuser, userHandler.List)
		user.POST("/", authed, superuser, userHandler.Create)
		user.GET("/me", authed, userHandler.Me)
		user.PUT("/me", authed, userHandler.UpdateMe)
		user.POST("/me/avatar", authed, userHandler.UploadAvatar)
		user.GET("/:id", authed, userHandler.Detail)
		user.PUT("/:id", authed, superuser, userHandler.Update)

		user.POST("/:id/follow", authed, userHandler.Follow)
		user.DELETE("/:id/follow", authed, userHandler.Unfollow)
		user.GET("/:id/followers", userHandler.Followers)
		user.GET("/:id/following", userHandler.Following)
	}

	// Posts, likes and newsletter subscriptions
	post := api.Group("/post")
	{
		post.GET("/", postHandler.List)
		post.GET("/:slug", postHandler.Detail)
		post.GET("/:slug/likes", postHandler.Likes)
		post.POST("/", authed, postHandler.Create)
		post.PUT("/:id", authed, postHandler.Update)
		post.DELETE("/:id", authed, postHandler.Delete)
		post.POST("/:id/like", authed, postHandler.Like)
		post.DELETE("/:id/like", authed, postHandler.Unlike)
		post.POST("/subscription/:category_id/:email", postHandler.Subscribe)
	}

	comment := api.Group("/comment")
	{
		comment.GET("/", commentHandler.List)
		comment.GET("/:id", commentHandler.Detail)
		comment.POST("/:post_id", authed, commentHandler.Create)
		comment.POST("/:post_id/:comment_id", authed, commentHandler.Create)
		comment.PUT("/:id", authed, commentHandler.Update)
		comment.DELETE("/:id", authed, commentHandler.Delete)
	}

	tag := api.Group("/tag")
	{
		tag.GET("/", tagHandler.List)
		tag.GET("/:id", tagHandler.Detail)
		tag.POST("/", authed, superuser, tagHandler.Create)
		tag.PUT("/:id", authed, superuser, tagHandler.Update)
		tag.DELETE("/:id", authed, superuser, tagHandler.Delete)
	}

	category := api.Group("/category")
	{
		category.GET("/", categoryHandler.List)
		category.GET("/:slug", categoryHandler.Detail)
		category.POST("/", authed, categoryHandler.Create)
		category.PUT("/:id", authed, categoryHandler.Update)
		category.DELETE("/:id", authed, categoryHandler.Delete)
	}
}
