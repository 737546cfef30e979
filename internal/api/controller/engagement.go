package controller

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
)

const dateLayout = "2006-01-02"

type engagementRequest struct {
	StartDate           *string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate             *string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	ActivityTypeIDs     []string `json:"activityTypeIds"`
	ActivityCategoryIDs []string `json:"activityCategoryIds"`
	GeographicAreaIDs   []string `json:"geographicAreaIds"`
	VenueIDs            []string `json:"venueIds"`
	PopulationIDs       []string `json:"populationIds"`
	GroupBy             []string `json:"groupBy"`
	Page                *int     `json:"page"`
	PageSize            *int     `json:"pageSize"`
}

// GetEngagementMetrics serves the main grouped engagement/growth aggregation.
func (c *Controller) GetEngagementMetrics(ctx echo.Context) error {
	var req engagementRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	filter, err := req.toFilter()
	if err != nil {
		return err
	}

	groupBy := make([]domain.GroupingDimension, 0, len(req.GroupBy))
	for _, dim := range req.GroupBy {
		groupBy = append(groupBy, domain.GroupingDimension(dim))
	}

	analyticsReq := domain.AnalyticsRequest{Filter: filter, GroupBy: groupBy}
	if req.Page != nil || req.PageSize != nil {
		if req.Page == nil || req.PageSize == nil {
			return constants.ValidationError("page", "page and pageSize must be provided together")
		}
		analyticsReq.Pagination = &domain.Pagination{Page: *req.Page, PageSize: *req.PageSize}
	}

	result, err := c.service.EngagementMetrics(ctx.Request().Context(), analyticsReq, authorizedAreas(ctx))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, result)
}

func (r *engagementRequest) toFilter() (domain.Filter, error) {
	filter := domain.Filter{}

	if r.StartDate != nil {
		t, err := time.Parse(dateLayout, *r.StartDate)
		if err != nil {
			return filter, constants.ValidationError("startDate", "must be a date in YYYY-MM-DD form")
		}
		filter.StartDate = &t
	}
	if r.EndDate != nil {
		t, err := time.Parse(dateLayout, *r.EndDate)
		if err != nil {
			return filter, constants.ValidationError("endDate", "must be a date in YYYY-MM-DD form")
		}
		filter.EndDate = &t
	}

	for _, f := range []struct {
		name string
		ids  []string
		dst  *[]string
	}{
		{"activityTypeIds", r.ActivityTypeIDs, &filter.ActivityTypeIDs},
		{"activityCategoryIds", r.ActivityCategoryIDs, &filter.ActivityCategoryIDs},
		{"geographicAreaIds", r.GeographicAreaIDs, &filter.GeographicAreaIDs},
		{"venueIds", r.VenueIDs, &filter.VenueIDs},
		{"populationIds", r.PopulationIDs, &filter.PopulationIDs},
	} {
		ids, err := parseIDList(f.name, f.ids)
		if err != nil {
			return filter, err
		}
		*f.dst = ids
	}

	return filter, nil
}

// parseIDList checks id format while preserving the nil-vs-empty distinction:
// an absent filter stays nil, a present-but-empty one is rejected downstream.
func parseIDList(field string, ids []string) ([]string, error) {
	if ids == nil {
		return nil, nil
	}
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return nil, constants.ValidationError(field, fmt.Sprintf("%q is not a valid identifier", id))
		}
	}
	return ids, nil
}
