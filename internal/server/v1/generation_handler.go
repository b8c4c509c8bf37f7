package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/epoch/internal/gateway"
	"github.com/nulzo/epoch/internal/store/model"
	"github.com/nulzo/epoch/pkg/api"
)

type GenerationHandler struct {
	service gateway.Service
}

func NewGenerationHandler(service gateway.Service) *GenerationHandler {
	return &GenerationHandler{service: service}
}

// GetGeneration handles GET /v1/generations/:id.
func (h *GenerationHandler) GetGeneration(c *gin.Context) {
	g, err := h.service.GetGeneration(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, toAPIGeneration(g))
}

// ListGenerations handles GET /v1/generations?limit=N.
func (h *GenerationHandler) ListGenerations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			_ = c.Error(api.BadRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	gens, err := h.service.RecentGenerations(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := api.GenerationList{Data: make([]api.Generation, 0, len(gens))}
	for i := range gens {
		out.Data = append(out.Data, toAPIGeneration(&gens[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Stats handles GET /v1/generations/stats.
func (h *GenerationHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := api.StatsResponse{Data: make([]api.GenerationStats, 0, len(stats))}
	for _, s := range stats {
		out.Data = append(out.Data, api.GenerationStats(s))
	}
	c.JSON(http.StatusOK, out)
}

func toAPIGeneration(g *model.Generation) api.Generation {
	out := api.Generation{
		ID:           g.ID,
		Provider:     g.Provider,
		Model:        g.Model,
		HasSystem:    g.HasSystem,
		HasSchema:    g.HasSchema,
		MIMEType:     g.MIMEType,
		PromptChars:  g.PromptChars,
		Status:       g.Status,
		ErrorKind:    g.ErrorKind.String,
		ErrorMessage: g.ErrorMessage.String,
		HTTPStatus:   int(g.HTTPStatus.Int64),
		LatencyMs:    g.LatencyMs,
		CreatedAt:    g.CreatedAt,
	}
	if g.Output.Valid && json.Valid([]byte(g.Output.String)) {
		out.Output = json.RawMessage(g.Output.String)
	}
	return out
}
