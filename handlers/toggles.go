package handlers

import (
	"net/http"

	"eldertales_api/middlewares"
	"eldertales_api/social"
	"eldertales_api/tools"

	"github.com/gin-gonic/gin"
)

func LikeToggleHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.Toggle(c, social.KindLike, middlewares.ActorId(c), c.Param("postId"))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, gin.H{"likesCount": result.Count, "isLiked": result.Active}, "Like toggled successfully")
	}
}

func SaveToggleHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.Toggle(c, social.KindSave, middlewares.ActorId(c), c.Param("postId"))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, gin.H{"isSaved": result.Active, "savedCount": result.Count}, "Save toggled successfully")
	}
}

func FollowToggleHandler(logger tools.Logger, svc *social.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.Toggle(c, social.KindFollow, middlewares.ActorId(c), c.Param("id"))
		if err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, gin.H{"isFollowing": result.Active, "followersCount": result.Count}, "Follow toggled successfully")
	}
}

// MembershipHandler drives the actor's like, save or follow membership of the target
// named by param to active. It backs the explicit save/unsave and follow/unfollow routes.
func MembershipHandler(logger tools.Logger, svc *social.Service, kind social.Kind, param string, active bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := svc.SetMembership(c, kind, middlewares.ActorId(c), c.Param(param), active); err != nil {
			tools.LogError(logger, c, err)
			return
		}

		tools.Respond(c, http.StatusOK, nil, message)
	}
}
