package router

import "github.com/gin-gonic/gin"

// Module is a feature that mounts its routes under the versioned API group.
type Module interface {
	Register(api *gin.RouterGroup)
}
