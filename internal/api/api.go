package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sinanour/cultivate-sub001/internal/api/controller"
	"github.com/sinanour/cultivate-sub001/internal/pkg/logger"
	"github.com/sinanour/cultivate-sub001/internal/pkg/store/xpgx"
	"github.com/sinanour/cultivate-sub001/internal/service/analytics"
)

type APIService struct {
	router           *echo.Echo
	analyticsService *analytics.Service
}

func (svc *APIService) Serve(addr string) {
	logger.Fatal(context.Background(), svc.router.Start(addr))
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

func NewAPIService(analyticsService *analytics.Service, pool *xpgx.Pool) (*APIService, error) {
	svc := &APIService{
		router:           echo.New(),
		analyticsService: analyticsService,
	}
	svc.router.HideBanner = true
	svc.router.JSONSerializer = sonicSerializer{}
	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.HTTPErrorHandler = httpErrorHandler
	svc.router.Use(middleware.Logger())
	svc.router.Use(RequestIDMiddleware)
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods: []string{echo.GET, echo.POST},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	cntrl := controller.NewController(analyticsService)

	api := svc.router.Group("/api/v1", svc.AuthMiddleware)

	an := api.Group("/analytics")
	an.POST("/engagement", cntrl.GetEngagementMetrics)
	an.POST("/distributions/roles", cntrl.GetRoleDistribution)
	an.POST("/distributions/venues", cntrl.GetVenueDistribution)

	areas := api.Group("/geographic-areas")
	areas.GET("", cntrl.ListGeographicAreas)

	svc.router.GET("/healthz", func(ctx echo.Context) error {
		if err := pool.Ping(ctx.Request().Context()); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unreachable")
		}
		return ctx.NoContent(http.StatusOK)
	})

	return svc, nil
}
