// file: controllers/team_controller.go
package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lqSky7/pwncore/database"
	"github.com/lqSky7/pwncore/models"
	"github.com/lqSky7/pwncore/utils"
)

// CreateTeam creates a team with the caller as its first member.
func CreateTeam(c *gin.Context) {
	var req struct {
		TeamName string `json:"team_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.MsgDBError)
		return
	}

	user := currentUser(c)
	if user == nil {
		return
	}
	if user.TeamID != nil {
		utils.Fail(c, http.StatusConflict, utils.MsgUserAlreadyInTeam)
		return
	}

	var count int64
	database.DB.Model(&models.Team{}).Where("team_name = ?", req.TeamName).Count(&count)
	if count > 0 {
		utils.Fail(c, http.StatusConflict, utils.MsgTeamExists)
		return
	}

	code, err := utils.RandomToken(10)
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}
	team := models.Team{
		TeamName:       req.TeamName,
		InvitationCode: strings.ToUpper(code),
	}
	if err := database.DB.Create(&team).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}

	user.TeamID = &team.ID
	if err := database.DB.Model(user).Update("team_id", team.ID).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}

	utils.Success(c, utils.MsgUserAdded, gin.H{
		"team_id":         team.ID,
		"invitation_code": team.InvitationCode,
	})
}

// JoinTeam adds the caller to the team matching the invitation code.
func JoinTeam(c *gin.Context) {
	var req struct {
		InvitationCode string `json:"invitation_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.MsgDBError)
		return
	}

	user := currentUser(c)
	if user == nil {
		return
	}
	if user.TeamID != nil {
		utils.Fail(c, http.StatusConflict, utils.MsgUserAlreadyInTeam)
		return
	}

	var team models.Team
	if err := database.DB.Where("invitation_code = ?", strings.ToUpper(req.InvitationCode)).First(&team).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, utils.MsgTeamNotFound)
		return
	}

	var members int64
	database.DB.Model(&models.User{}).Where("team_id = ?", team.ID).Count(&members)
	if members >= int64(Cfg.MaxMembersPerTeam) {
		utils.Fail(c, http.StatusConflict, utils.MsgTeamFull)
		return
	}

	if err := database.DB.Model(user).Update("team_id", team.ID).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}

	utils.Success(c, utils.MsgUserAdded, gin.H{"team_id": team.ID})
}

// LeaveTeam removes the caller from their team.
func LeaveTeam(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if user.TeamID == nil {
		utils.Fail(c, http.StatusConflict, utils.MsgUserNotInTeam)
		return
	}

	if err := database.DB.Model(user).Update("team_id", nil).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}

	utils.Success(c, utils.MsgUserRemoved, nil)
}

// GetTeam returns the caller's team with members and coin balance.
func GetTeam(c *gin.Context) {
	_, team := currentTeam(c)
	if team == nil {
		return
	}

	var members []models.User
	database.DB.Where("team_id = ?", team.ID).Find(&members)
	team.Members = members

	c.JSON(http.StatusOK, team)
}
