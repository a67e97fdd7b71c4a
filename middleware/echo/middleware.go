package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/reoring/polyskema"
	"github.com/reoring/polyskema/middleware"
)

// LoadJSON loads the request JSON through the dispatch schema s, stores the
// result in the request context on success, or returns 400 with the error
// payload when loading fails.
func LoadJSON(s *polyskema.OneOf, opt polyskema.ParseOpt) echo.MiddlewareFunc {
	if middleware.IsZeroParseOpt(opt) {
		opt = middleware.DefaultParseOpt()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v, err := polyskema.StreamLoad(c.Request().Context(), s, c.Request().Body, opt)
			if err != nil {
				return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(err))
			}
			ctx := middleware.ContextWithLoaded(c.Request().Context(), v)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetLoaded fetches the loaded value from echo.Context.
func GetLoaded[T any](c echo.Context) (T, bool) {
	return middleware.LoadedFromContext[T](c.Request().Context())
}
