package util

import (
	"net/http"

	"ivr-flow/internal/plivoxml"

	"github.com/gin-gonic/gin"
)

// Response is the data payload of the JSON envelope.
type Response map[string]interface{}

// Business error codes used by the admin API.
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeForbidden    = 40301
	CodeNotFound     = 40401
	CodeServerErr    = 50001
	CodeUnavailable  = 50301
)

// Success writes {"code":0,"data":...}.
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// Error writes {"code":...,"message":...}.
func Error(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

// XML writes a Plivo document. Plivo always gets 200 so it keeps the call
// leg alive and acts on the document.
func XML(c *gin.Context, r plivoxml.Response) {
	c.Data(http.StatusOK, plivoxml.ContentType, []byte(r.Body))
}
