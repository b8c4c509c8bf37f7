package server

import (
	"github.com/nulzo/epoch/internal/platform/validation"
	"github.com/nulzo/epoch/internal/server/middleware"
	v1 "github.com/nulzo/epoch/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	s.router.GET("/health", v1.Health)

	limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)

	api := s.router.Group("/v1")
	api.Use(limiter.Middleware())
	api.Use(middleware.Attribution())
	{
		providerHandler := v1.NewProviderHandler(s.service)
		api.GET("/provider", providerHandler.GetProvider)

		generateHandler := v1.NewGenerateHandler(s.service, validation.ForGin())
		api.POST("/generate", generateHandler.Generate)

		generationHandler := v1.NewGenerationHandler(s.service)
		api.GET("/generations", generationHandler.ListGenerations)
		api.GET("/generations/stats", generationHandler.Stats)
		api.GET("/generations/:id", generationHandler.GetGeneration)
	}
}
