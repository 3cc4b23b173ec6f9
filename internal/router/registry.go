package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-registration/pkg/problem"
	"github.com/oksasatya/go-ddd-user-registration/pkg/response"
)

const APIPrefix = "/v1"

type Registry struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	modules []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	api := engine.Group(APIPrefix)
	return &Registry{Engine: engine, API: api}
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// RegisterAll mounts every module under the API group, redirects the root
// to the health check and answers unknown routes with a not-found problem.
func (r *Registry) RegisterAll() {
	for _, m := range r.modules {
		m.Register(r.API)
	}
	r.Engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, APIPrefix+"/health")
	})
	r.Engine.NoRoute(func(c *gin.Context) {
		response.Problem(c, problem.NotFound("Route "+c.Request.Method+" "+c.Request.URL.Path+" was not found", "", nil))
	})
}
