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

func bindComment(c *gin.Context) (string, error) {
	var req types.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidArgument, err)
	}
	return req.Content, nil
}

func AddCommentHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		content, err := bindComment(c)
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		comment, err := svc.AddComment(c, middlewares.ActorId(c), c.Param("postId"), content)
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusCreated, comment, "Comment added successfully")
	}
}

func EditCommentHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		content, err := bindComment(c)
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		comment, err := svc.EditComment(c, middlewares.ActorId(c), c.Param("postId"), c.Param("commentId"), content)
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, comment, "Comment updated successfully")
	}
}

func DeleteCommentHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.DeleteComment(c, middlewares.ActorId(c), c.Param("postId"), c.Param("commentId"))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, nil, "Comment deleted successfully")
	}
}
