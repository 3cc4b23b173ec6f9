package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/go-ddd-user-registration/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-registration/internal/interface/middleware"
)

// UserLimits configures the per-IP limiter on registration. A nil Redis or
// a zero PerMinute leaves the route unlimited.
type UserLimits struct {
	Redis         *redis.Client
	PerMinute     int
	BypassPrivate bool
	Logger        *logrus.Logger
}

// UserModule wires user registration: POST /v1/users
type UserModule struct {
	Handler *handlers.UserHandler
	Limits  UserLimits
}

func NewUserModule(h *handlers.UserHandler, limits UserLimits) *UserModule {
	return &UserModule{Handler: h, Limits: limits}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	var allow middleware.AllowFunc
	if m.Limits.BypassPrivate {
		allow = middleware.AllowPrivateIP()
	}
	createLimiter := middleware.RateLimit(m.Limits.Redis, m.Limits.PerMinute, time.Minute, middleware.KeyByIPAndPath(), allow, m.Limits.Logger)

	rg.POST("/users", createLimiter, m.Handler.Create)
}
