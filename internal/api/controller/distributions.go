package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sinanour/cultivate-sub001/internal/domain"
)

// GetRoleDistribution serves assignment counts by role, bulk attendance
// folded into the default role.
func (c *Controller) GetRoleDistribution(ctx echo.Context) error {
	filter, err := bindDistributionFilter(ctx)
	if err != nil {
		return err
	}

	entries, err := c.service.RoleDistribution(ctx.Request().Context(), filter, authorizedAreas(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, entries)
}

// GetVenueDistribution serves participation counts by current venue.
func (c *Controller) GetVenueDistribution(ctx echo.Context) error {
	filter, err := bindDistributionFilter(ctx)
	if err != nil {
		return err
	}

	entries, err := c.service.VenueDistribution(ctx.Request().Context(), filter, authorizedAreas(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, entries)
}

func bindDistributionFilter(ctx echo.Context) (domain.Filter, error) {
	var req engagementRequest
	if err := ctx.Bind(&req); err != nil {
		return domain.Filter{}, err
	}
	if err := ctx.Validate(&req); err != nil {
		return domain.Filter{}, err
	}
	return req.toFilter()
}
