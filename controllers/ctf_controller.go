// file: controllers/ctf_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lqSky7/pwncore/database"
	"github.com/lqSky7/pwncore/models"
	"github.com/lqSky7/pwncore/utils"
)

var (
	errHintsExhausted = errors.New("hints exhausted")
	errNotEnoughCoins = errors.New("not enough coins")
)

// ListCTFs returns every visible problem.
func ListCTFs(c *gin.Context) {
	var problems []models.Problem
	if err := database.DB.Where("visible = ?", true).Find(&problems).Error; err != nil {
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}
	c.JSON(http.StatusOK, problems)
}

// GetCTF returns one visible problem.
func GetCTF(c *gin.Context) {
	problemID, _ := strconv.Atoi(c.Param("id"))

	var problem models.Problem
	err := database.DB.Where("visible = ?", true).First(&problem, problemID).Error
	if err != nil {
		utils.Fail(c, http.StatusNotFound, utils.MsgCTFNotFound)
		return
	}
	c.JSON(http.StatusOK, problem)
}

// SubmitFlag checks a submission against the flag injected into the team's
// live instance. A correct flag records the solve and credits the problem's
// points to the team once.
func SubmitFlag(c *gin.Context) {
	problemID, _ := strconv.Atoi(c.Param("id"))

	var req struct {
		Flag string `json:"flag" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, http.StatusBadRequest, utils.MsgDBError)
		return
	}

	user, team := currentTeam(c)
	if team == nil {
		return
	}

	var problem models.Problem
	if err := database.DB.Where("visible = ?", true).First(&problem, problemID).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, utils.MsgCTFNotFound)
		return
	}

	var solved models.SolvedProblem
	err := database.DB.Where("team_id = ? AND problem_id = ?", team.ID, problem.ID).First(&solved).Error
	if err == nil {
		utils.Success(c, utils.MsgCTFSolved, gin.H{"already_solved": true})
		return
	}

	flag, ok := Engine.InstanceFlag(team.ID, problem.ID)
	if !ok {
		utils.Fail(c, http.StatusNotFound, utils.MsgContainerNotFound)
		return
	}
	if req.Flag != flag {
		c.JSON(http.StatusOK, gin.H{"correct": false})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		record := models.SolvedProblem{
			TeamID:    team.ID,
			ProblemID: problem.ID,
			UserID:    user.ID,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return tx.Model(&models.Team{}).Where("id = ?", team.ID).
			Update("coins", gorm.Expr("coins + ?", problem.Points)).Error
	})
	if err != nil {
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}

	utils.Success(c, utils.MsgCTFSolved, gin.H{"correct": true, "points": problem.Points})
}

// UnlockHint reveals the team's next unseen hint for the problem, charging
// the configured coin penalty.
func UnlockHint(c *gin.Context) {
	problemID, _ := strconv.Atoi(c.Param("id"))

	_, team := currentTeam(c)
	if team == nil {
		return
	}

	var problem models.Problem
	if err := database.DB.First(&problem, problemID).Error; err != nil {
		utils.Fail(c, http.StatusNotFound, utils.MsgCTFNotFound)
		return
	}

	var hint models.Hint
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var hints []models.Hint
		if err := tx.Where("problem_id = ?", problem.ID).Order("hint_order asc").Find(&hints).Error; err != nil {
			return err
		}

		var viewedIDs []uint32
		tx.Model(&models.ViewedHint{}).Where("team_id = ?", team.ID).Pluck("hint_id", &viewedIDs)
		seen := make(map[uint32]bool, len(viewedIDs))
		for _, id := range viewedIDs {
			seen[id] = true
		}

		next := -1
		for i := range hints {
			if !seen[hints[i].ID] {
				next = i
				break
			}
		}
		if next == -1 {
			return errHintsExhausted
		}

		// Re-read coins inside the transaction before charging.
		var fresh models.Team
		if err := tx.First(&fresh, team.ID).Error; err != nil {
			return err
		}
		if fresh.Coins < Cfg.HintPenalty {
			return errNotEnoughCoins
		}

		if err := tx.Model(&models.Team{}).Where("id = ?", team.ID).
			Update("coins", gorm.Expr("coins - ?", Cfg.HintPenalty)).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.ViewedHint{TeamID: team.ID, HintID: hints[next].ID}).Error; err != nil {
			return err
		}
		hint = hints[next]
		return nil
	})
	switch err {
	case nil:
	case errHintsExhausted:
		utils.Fail(c, http.StatusConflict, utils.MsgHintLimitReached)
		return
	case errNotEnoughCoins:
		utils.Fail(c, http.StatusForbidden, utils.MsgInsufficientCoins)
		return
	default:
		utils.Fail(c, http.StatusInternalServerError, utils.MsgDBError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hint_id": hint.ID,
		"order":   hint.Order,
		"text":    hint.Text,
	})
}
