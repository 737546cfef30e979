package controller

import (
	"github.com/labstack/echo/v4"
	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
	"github.com/sinanour/cultivate-sub001/internal/service/analytics"
)

type Controller struct {
	service *analytics.Service
}

func NewController(service *analytics.Service) *Controller {
	return &Controller{service: service}
}

// authorizedAreas pulls the caller's area set placed by the auth middleware.
// An absent value means an unrestricted caller (e.g. internal traffic).
func authorizedAreas(ctx echo.Context) domain.AuthorizedAreas {
	if areas, ok := ctx.Get(constants.CtxKeyAuthorizedAreas).(domain.AuthorizedAreas); ok {
		return areas
	}
	return domain.NewAuthorizedAreas(nil, false)
}
