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

func RegisterUserHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			tools.LogError(logger, c, fmt.Errorf("%w: %v", types.ErrInvalidArgument, err))
			return
		}

		user, err := svc.RegisterProfile(c, middlewares.ActorId(c), req)
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusCreated, user, "User registered successfully")
	}
}

func CurrentUserHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.GetUser(c, middlewares.ActorId(c))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, view, "User fetched successfully")
	}
}

func UserHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := svc.PublicProfile(c, c.Param("id"))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, profile, "User fetched successfully")
	}
}

func FollowersHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		followers, err := svc.Followers(c, middlewares.ActorId(c))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, followers, "Followers fetched successfully")
	}
}

func FollowingHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		following, err := svc.Following(c, middlewares.ActorId(c))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, following, "Following fetched successfully")
	}
}
