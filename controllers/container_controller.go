// file: controllers/container_controller.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lqSky7/pwncore/services"
	"github.com/lqSky7/pwncore/utils"
)

// StartContainer provisions a challenge instance for the caller's team and
// returns the published port.
func StartContainer(c *gin.Context) {
	problemID, _ := strconv.Atoi(c.Param("id"))

	_, team := currentTeam(c)
	if team == nil {
		return
	}

	result, err := Engine.StartContainer(c.Request.Context(), team.ID, uint32(problemID))
	if err != nil {
		status, code := containerErrReply(err)
		utils.Fail(c, status, code)
		return
	}

	payload := gin.H{"port": result.Port}
	if Cfg.Development {
		payload["flag"] = result.Flag
	}
	utils.Success(c, utils.MsgContainerStart, payload)
}

// StopContainer tears down the caller's instance for the problem.
func StopContainer(c *gin.Context) {
	problemID, _ := strconv.Atoi(c.Param("id"))

	_, team := currentTeam(c)
	if team == nil {
		return
	}

	if err := Engine.StopContainer(c.Request.Context(), team.ID, uint32(problemID)); err != nil {
		status, code := containerErrReply(err)
		utils.Fail(c, status, code)
		return
	}

	utils.Success(c, utils.MsgContainerStop, nil)
}

// StopAllContainers tears down every running instance of the caller's team,
// reporting per-problem results.
func StopAllContainers(c *gin.Context) {
	_, team := currentTeam(c)
	if team == nil {
		return
	}

	report := Engine.StopAllForTeam(c.Request.Context(), team.ID)

	failed := make(map[string]string, len(report.Failed))
	for problemID, err := range report.Failed {
		failed[strconv.Itoa(int(problemID))] = err.Error()
	}
	utils.Success(c, utils.MsgContainersTeamStop, gin.H{
		"stopped": report.Stopped,
		"failed":  failed,
	})
}

// ListContainers returns the caller's team instances.
func ListContainers(c *gin.Context) {
	_, team := currentTeam(c)
	if team == nil {
		return
	}

	type containerInfo struct {
		ProblemID uint32 `json:"problem_id"`
		Port      int    `json:"port"`
		State     string `json:"state"`
		StartedAt string `json:"started_at"`
	}
	out := []containerInfo{}
	for _, inst := range Engine.ListTeam(team.ID) {
		out = append(out, containerInfo{
			ProblemID: inst.ProblemID,
			Port:      inst.Port,
			State:     string(inst.State),
			StartedAt: inst.StartedAt.Format("2006-01-02 15:04:05"),
		})
	}
	c.JSON(http.StatusOK, out)
}

// containerErrReply maps engine errors onto the message-code vocabulary.
func containerErrReply(err error) (int, utils.MsgCode) {
	switch {
	case errors.Is(err, services.ErrProblemNotFound):
		return http.StatusNotFound, utils.MsgCTFNotFound
	case errors.Is(err, services.ErrAlreadyRunning):
		return http.StatusConflict, utils.MsgContainerRunning
	case errors.Is(err, services.ErrContainerLimit):
		return http.StatusConflict, utils.MsgContainerLimit
	case errors.Is(err, services.ErrPortsExhausted):
		return http.StatusServiceUnavailable, utils.MsgPortLimitReached
	case errors.Is(err, services.ErrContainerNotFound):
		return http.StatusNotFound, utils.MsgContainerNotFound
	default:
		return http.StatusInternalServerError, utils.MsgDBError
	}
}
