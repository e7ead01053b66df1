// Package httperr defines the error envelope every API endpoint responds
// with: a message under "error" plus an optional machine-readable "detail",
// which reservation endpoints use for seat labels (conflicting or unknown
// seats) so clients can update a seat map without re-fetching it.
package httperr

import (
	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// AbortWithError writes the envelope and stops the handler chain. The
// original error rides along on the gin context for the logging middleware.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
