// file: controllers/auth_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lqSky7/pwncore/database"
	"github.com/lqSky7/pwncore/models"
	"github.com/lqSky7/pwncore/utils"
)

// Signup registers a new user.
func Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		PhoneNum string `json:"phone_num"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.MsgDBError)
		return
	}

	var count int64
	database.DB.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count)
	if count > 0 {
		utils.Fail(c, http.StatusConflict, utils.MsgUserOrEmailExists)
		return
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		PhoneNum: req.PhoneNum,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}

	utils.Success(c, utils.MsgSignupSuccess, gin.H{"user_id": user.ID})
}

// Login checks credentials and issues a JWT.
func Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.MsgDBError)
		return
	}

	var user models.User
	if err := database.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, utils.MsgUserNotFound)
		return
	}
	if !user.CheckPassword(req.Password) {
		utils.Fail(c, http.StatusUnauthorized, utils.MsgWrongPassword)
		return
	}

	token, err := utils.GenerateToken([]byte(Cfg.JWTSecret), Cfg.JWTValidDuration, user.ID, user.TeamID)
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}

	utils.Success(c, utils.MsgLoginSuccess, gin.H{"token": token})
}
