package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListGeographicAreas returns the full area tree, for filter-building UIs.
func (c *Controller) ListGeographicAreas(ctx echo.Context) error {
	areas, err := c.service.ListGeographicAreas(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, areas)
}
