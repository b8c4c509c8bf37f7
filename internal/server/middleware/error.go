package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/epoch/internal/config"
	"github.com/nulzo/epoch/internal/gateway"
	"github.com/nulzo/epoch/internal/llm"
	"github.com/nulzo/epoch/internal/store"
	"github.com/nulzo/epoch/pkg/api"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error attached by a handler as an RFC 9457
// problem document.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		problem := ToProblem(c.Errors.Last().Err)
		problem.Instance = c.Request.URL.Path

		if problem.Status >= http.StatusInternalServerError {
			logger.Error("Request failed",
				zap.Int("status", problem.Status),
				zap.String("title", problem.Title),
				zap.NamedError("cause", problem.Log),
			)
		}

		c.Header("Content-Type", "application/problem+json")
		c.AbortWithStatusJSON(problem.Status, problem)
	}
}

// ToProblem maps domain errors onto HTTP problems. Unknown errors become a
// generic 500 that does not leak the cause.
func ToProblem(err error) *api.Problem {
	var (
		problem *api.Problem
		cfgErr  *config.Error
		genErr  *llm.GenerationError
	)

	switch {
	case errors.As(err, &problem):
		return problem

	case errors.As(err, &cfgErr):
		return api.ConfigurationError(cfgErr.Setting, cfgErr.Error(), err)

	case errors.As(err, &genErr):
		if genErr.Kind == llm.KindCancelled {
			return api.TimeoutError(genErr.Error(), err)
		}
		opts := []api.ProblemOption{api.WithExtension("provider", string(genErr.Provider))}
		if genErr.StatusCode != 0 {
			opts = append(opts, api.WithExtension("upstream_status", genErr.StatusCode))
		}
		return api.ProviderError(string(genErr.Kind), genErr.Error(), err, opts...)

	case errors.Is(err, store.ErrNotFound):
		return api.NotFoundError("generation not found")

	case errors.Is(err, gateway.ErrJournalDisabled):
		return api.NewProblem(http.StatusServiceUnavailable, "Journal Disabled",
			fmt.Sprintf("%s; set DATABASE_DSN to enable it", err))

	default:
		return api.InternalError("An unexpected error occurred.", err)
	}
}
