package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-registration/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
	"github.com/oksasatya/go-ddd-user-registration/pkg/response"
)

// Recovery turns panics into the generic internal-server-error problem.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		helpers.LogEntry(c.Request.Context(), logger).
			WithField("panic", recovered).
			WithField("path", c.Request.URL.Path).
			Error("panic recovered")
		response.Problem(c, problem.Internal(""))
		c.Abort()
	})
}
