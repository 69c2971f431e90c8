package handlers

import (
	"fmt"
	"net/http"

	"eldertales_api/middlewares"
	"eldertales_api/social"
	"eldertales_api/tools"
	"eldertales_api/types"

	"github.com/gin-gonic/gin"
)

func bindPage(c *gin.Context) (social.Page, error) {
	var req types.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return social.Page{}, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err)
	}
	return social.Page{Number: req.PageNumber, Size: req.PageSize}, nil
}

type feedFunc func(c *gin.Context, actorId string, page social.Page) ([]types.PostView, error)

// feedHandler binds paging, runs the feed for the current actor and writes the views.
func feedHandler(logger tools.Logger, message string, feed feedFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := bindPage(c)
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		views, err := feed(c, middlewares.ActorId(c), page)
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, views, message)
	}
}

func CreatePostHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := svc.CreatePost(c, middlewares.ActorId(c), c.PostForm("description"), middlewares.MediaBlobs(c))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusCreated, post, "Post created successfully")
	}
}

func OwnPostsHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return feedHandler(logger, "Posts fetched successfully", func(c *gin.Context, actorId string, page social.Page) ([]types.PostView, error) {
		return svc.OwnFeed(c, actorId, page)
	})
}

func OtherPostsHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return feedHandler(logger, "Posts fetched successfully", func(c *gin.Context, actorId string, page social.Page) ([]types.PostView, error) {
		return svc.OthersFeed(c, actorId, page)
	})
}

func SavedPostsHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return feedHandler(logger, "Saved posts fetched successfully", func(c *gin.Context, actorId string, page social.Page) ([]types.PostView, error) {
		return svc.SavedFeed(c, actorId, page)
	})
}

// UserPostsHandler lists the posts of the user named by the :postId segment.
func UserPostsHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return feedHandler(logger, "User posts fetched successfully", func(c *gin.Context, actorId string, page social.Page) ([]types.PostView, error) {
		return svc.UserFeed(c, actorId, c.Param("postId"), page)
	})
}

func SearchPostsHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.SearchRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			tools.LogError(logger, c, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err))
			return
		}

		views, err := svc.SearchOwn(c, middlewares.ActorId(c), req.Keyword, social.Page{Number: req.PageNumber, Size: req.PageSize})
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, views, "Posts fetched successfully")
	}
}

func PostDetailHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.PostDetail(c, middlewares.ActorId(c), c.Param("postId"))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, view, "Post fetched successfully")
	}
}

// UpdatePostHandler replaces the description when the form carries one, and the media
// when files are attached.
func UpdatePostHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var description *string
		if value, ok := c.GetPostForm("description"); ok {
			description = &value
		}

		post, err := svc.UpdatePost(c, middlewares.ActorId(c), c.Param("postId"), description, middlewares.MediaBlobs(c))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, post, "Post updated successfully")
	}
}

func DeletePostHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeletePost(c, middlewares.ActorId(c), c.Param("postId")); err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, nil, "Post deleted successfully")
	}
}
