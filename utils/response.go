// file: utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Reply writes the standard response envelope: a message code, its canonical
// text, and any extra payload fields merged at the top level.
func Reply(c *gin.Context, status int, code MsgCode, extra gin.H) {
	body := gin.H{
		"msg_code": code,
		"msg":      code.Text(),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// Success is shorthand for a 200 reply.
func Success(c *gin.Context, code MsgCode, extra gin.H) {
	Reply(c, http.StatusOK, code, extra)
}

// Fail is shorthand for an error reply with no payload.
func Fail(c *gin.Context, status int, code MsgCode) {
	Reply(c, status, code, nil)
}
