package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-user-registration/pkg/response"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Check reports liveness; it never touches storage.
func (h *HealthHandler) Check(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"status": "ok"})
}
