// file: controllers/context.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lqSky7/pwncore/config"
	"github.com/lqSky7/pwncore/database"
	"github.com/lqSky7/pwncore/models"
	"github.com/lqSky7/pwncore/services"
	"github.com/lqSky7/pwncore/utils"
)

var (
	Cfg    *config.Config
	Engine *services.ContainerService
)

// Setup injects the process-wide config and orchestration engine. Called
// once from main before the router starts serving.
func Setup(cfg *config.Config, engine *services.ContainerService) {
	Cfg = cfg
	Engine = engine
}

// currentUser loads the authenticated user. Writes the error response and
// returns nil when the user cannot be resolved.
func currentUser(c *gin.Context) *models.User {
	userIDAny, ok := c.Get("user_id")
	if !ok {
		utils.Fail(c, http.StatusUnauthorized, utils.MsgUserNotFound)
		return nil
	}
	var user models.User
	if err := database.DB.First(&user, userIDAny.(uint32)).Error; err != nil {
		utils.Fail(c, http.StatusUnauthorized, utils.MsgUserNotFound)
		return nil
	}
	return &user
}

// currentTeam resolves the authenticated user's team, always from the
// database so join/leave takes effect without reissuing tokens. Writes the
// error response and returns nil when the user has no team.
func currentTeam(c *gin.Context) (*models.User, *models.Team) {
	user := currentUser(c)
	if user == nil {
		return nil, nil
	}
	if user.TeamID == nil {
		utils.Fail(c, http.StatusForbidden, utils.MsgUserNotInTeam)
		return nil, nil
	}
	var team models.Team
	if err := database.DB.First(&team, *user.TeamID).Error; err != nil {
		utils.Fail(c, http.StatusForbidden, utils.MsgTeamNotFound)
		return nil, nil
	}
	return user, &team
}
