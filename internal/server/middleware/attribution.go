package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/nulzo/epoch/internal/llm"
)

// TitleHeader lets a caller override the application title sent to
// aggregators that rank by app.
const TitleHeader = "X-App-Title"

// Attribution forwards the browser Origin and optional title to outbound
// provider calls through the request context.
func Attribution() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := llm.Attribution{
			Origin: c.GetHeader("Origin"),
			Title:  c.GetHeader(TitleHeader),
		}
		if a.Origin != "" || a.Title != "" {
			c.Request = c.Request.WithContext(llm.WithAttribution(c.Request.Context(), a))
		}
		c.Next()
	}
}
