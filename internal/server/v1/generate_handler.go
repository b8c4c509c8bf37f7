package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/epoch/internal/gateway"
	"github.com/nulzo/epoch/internal/llm"
	"github.com/nulzo/epoch/internal/platform/validation"
	"github.com/nulzo/epoch/internal/schema"
	"github.com/nulzo/epoch/pkg/api"
)

type GenerateHandler struct {
	service   gateway.Service
	validator *validation.Validator
}

func NewGenerateHandler(service gateway.Service, v *validation.Validator) *GenerateHandler {
	return &GenerateHandler{service: service, validator: v}
}

// Generate handles POST /v1/generate.
func (h *GenerateHandler) Generate(c *gin.Context) {
	var body api.GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(api.ValidationError(h.validator.ParseError(err)))
		return
	}

	req, err := toGenerateRequest(&body)
	if err != nil {
		_ = c.Error(err)
		return
	}

	res, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, api.GenerateResponse{
		ID:        res.ID,
		Provider:  res.Provider,
		Model:     res.Model,
		LatencyMs: res.Latency.Milliseconds(),
		Result:    res.Output,
	})
}

func toGenerateRequest(body *api.GenerateRequest) (*llm.GenerateRequest, error) {
	req := &llm.GenerateRequest{
		Prompt:            body.Prompt,
		SystemInstruction: body.SystemInstruction,
		ResponseMIMEType:  body.ResponseMIMEType,
	}

	switch {
	case len(body.ResponseSchema) > 0 && string(body.ResponseSchema) != "null":
		s, err := schema.Parse(body.ResponseSchema)
		if err != nil {
			return nil, api.BadRequestError("response_schema is not valid JSON", api.WithLog(err))
		}
		if s == nil {
			return nil, api.BadRequestError("response_schema must be a JSON object")
		}
		req.ResponseSchema = s

	case body.Preset != "":
		s, ok := schema.Preset(body.Preset)
		if !ok {
			return nil, api.BadRequestError("unknown preset " + body.Preset)
		}
		req.ResponseSchema = s
	}

	return req, nil
}
