package domain

import (
	"sort"
	"time"
)

type GroupingDimension string

const (
	GroupByActivityType     GroupingDimension = "activityType"
	GroupByActivityCategory GroupingDimension = "activityCategory"
	GroupByGeographicArea   GroupingDimension = "geographicArea"
	GroupByVenue            GroupingDimension = "venue"
)

// KnownGroupingDimensions lists every dimension the compiler supports, in
// canonical output order.
var KnownGroupingDimensions = []GroupingDimension{
	GroupByActivityType,
	GroupByActivityCategory,
	GroupByGeographicArea,
	GroupByVenue,
}

// Filter is the per-request filter set. Nil slices mean "no filter on this
// dimension"; an empty non-nil slice is rejected at validation.
type Filter struct {
	StartDate           *time.Time
	EndDate             *time.Time
	ActivityTypeIDs     []string
	ActivityCategoryIDs []string
	GeographicAreaIDs   []string
	VenueIDs            []string
	PopulationIDs       []string
}

// HasDateRange reports whether both range endpoints are present, which
// selects snapshot-pair mode in the compiler.
func (f Filter) HasDateRange() bool {
	return f.StartDate != nil && f.EndDate != nil
}

type Pagination struct {
	Page     int
	PageSize int
}

// AnalyticsRequest is the engine's inbound request: filters, grouping
// dimensions, optional pagination.
type AnalyticsRequest struct {
	Filter     Filter
	GroupBy    []GroupingDimension
	Pagination *Pagination
}

// AuthorizedAreas is the caller's authorized-area set as issued by the
// authorization collaborator: already descendant-expanded and deny-subtracted.
// It is deliberately opaque so nothing downstream can mistake it for a raw
// filter list and re-expand it.
type AuthorizedAreas struct {
	restricted bool
	ids        map[string]struct{}
}

func NewAuthorizedAreas(ids []string, restricted bool) AuthorizedAreas {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AuthorizedAreas{restricted: restricted, ids: set}
}

func (a AuthorizedAreas) Restricted() bool { return a.restricted }

func (a AuthorizedAreas) Contains(id string) bool {
	_, ok := a.ids[id]
	return ok
}

// IDs returns the authorized ids in stable order.
func (a AuthorizedAreas) IDs() []string {
	out := make([]string, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// GroupedRow is one raw aggregation result row. A nil dimension id marks the
// total stratum for that dimension.
type GroupedRow struct {
	DimensionIDs []*string
	Metrics      []int
}

// Metric column names in wire order.
var (
	RangeMetricColumns = []string{
		"activitiesAtStart", "activitiesAtEnd",
		"participantsAtStart", "participantsAtEnd",
		"participationAtStart", "participationAtEnd",
		"activitiesStarted", "activitiesCompleted",
	}
	CurrentMetricColumns = []string{
		"activeActivities", "activeParticipants", "activeParticipation",
		"plannedActivities", "completedActivities",
	}
)

type LookupEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PageInfo struct {
	Page            int  `json:"page"`
	PageSize        int  `json:"pageSize"`
	TotalRecords    int  `json:"totalRecords"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// WireResult is the compact response encoding: integer-indexed data rows plus
// per-dimension lookup arrays. Within a data row, dimension indices come
// first (in GroupedBy order, -1 for the total stratum), then metric values in
// Columns order. Ordering is the contract; there are no named keys.
type WireResult struct {
	Columns      []string                            `json:"columns"`
	GroupedBy    []GroupingDimension                 `json:"groupedBy"`
	HasDateRange bool                                `json:"hasDateRange"`
	Data         [][]int                             `json:"data"`
	Lookups      map[GroupingDimension][]LookupEntry `json:"lookups"`
	PageInfo     PageInfo                            `json:"pageInfo"`
}

// DistributionEntry is one row of a single-dimension breakdown (e.g. counts
// by role), with its share of the grand total as a percentage string.
type DistributionEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	Share string `json:"share"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Code    int    `json:"code"`
}
