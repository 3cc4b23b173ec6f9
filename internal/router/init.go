package router

import (
	"github.com/oksasatya/go-ddd-user-registration/internal/container"
	handlers "github.com/oksasatya/go-ddd-user-registration/internal/interface/http"
	"github.com/oksasatya/go-ddd-user-registration/internal/router/modules"
)

// InitModules builds the handlers from c and registers their modules.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config

	r.Add(modules.NewHealthModule(handlers.NewHealthHandler()))
	r.Add(modules.NewUserModule(
		handlers.NewUserHandler(c.CreateUser, c.Logger),
		modules.UserLimits{
			Redis:         c.Redis,
			PerMinute:     cfg.CreateUserRateLimit,
			BypassPrivate: cfg.RateLimitBypassPrivate,
			Logger:        c.Logger,
		},
	))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis, c.Logger))
	}
}
