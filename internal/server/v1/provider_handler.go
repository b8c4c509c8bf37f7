package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/epoch/internal/gateway"
	"github.com/nulzo/epoch/internal/version"
	"github.com/nulzo/epoch/pkg/api"
)

type ProviderHandler struct {
	service gateway.Service
}

func NewProviderHandler(service gateway.Service) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// GetProvider handles GET /v1/provider. Resolving the provider here surfaces
// configuration problems before the first generation.
func (h *ProviderHandler) GetProvider(c *gin.Context) {
	p, err := h.service.ActiveProvider(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, api.ProviderInfo{Provider: string(p.ID()), Model: p.Model()})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok", Version: version.Version})
}
