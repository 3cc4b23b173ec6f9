package response

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-user-registration/pkg/helpers"
	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
)

const ProblemContentType = "application/problem+json"

// JSON writes data as the response body.
func JSON(ctx *gin.Context, status int, data any) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, data)
}

// Problem writes p as an RFC 7807 document, bound to the request URL.
func Problem(ctx *gin.Context, p *problem.Problem) {
	if p.Instance == "" {
		p = p.WithInstance(requestURL(ctx.Request))
	}
	b, err := json.Marshal(p)
	if err != nil {
		ctx.Status(http.StatusInternalServerError)
		return
	}
	ctx.Data(p.Status, ProblemContentType, b)
}

// Error renders err. Problems go out as they are; anything else is logged
// and replaced by the generic internal error so no detail leaks.
func Error(ctx *gin.Context, logger *logrus.Logger, err error) {
	p, ok := problem.From(err)
	if !ok {
		helpers.LogEntry(ctx.Request.Context(), logger).
			WithError(err).
			WithField("path", ctx.Request.URL.Path).
			Error("unhandled error")
	}
	Problem(ctx, p)
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
