package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reoring/polyskema"
	"github.com/reoring/polyskema/middleware"
)

// LoadJSON loads the incoming JSON through the dispatch schema s with opt (or
// DefaultParseOpt when zero value), stores the result in the request context,
// and on failure aborts with 400 and the error payload.
func LoadJSON(s *polyskema.OneOf, opt polyskema.ParseOpt) gin.HandlerFunc {
	if middleware.IsZeroParseOpt(opt) {
		opt = middleware.DefaultParseOpt()
	}
	return func(c *gin.Context) {
		v, err := polyskema.StreamLoad(c.Request.Context(), s, c.Request.Body, opt)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrorPayload(err))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithLoaded(c.Request.Context(), v))
		c.Next()
	}
}

// GetLoaded fetches the loaded value from gin.Context.
func GetLoaded[T any](c *gin.Context) (T, bool) {
	return middleware.LoadedFromContext[T](c.Request.Context())
}
