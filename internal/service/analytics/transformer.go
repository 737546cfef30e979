package analytics

import (
	"github.com/sinanour/cultivate-sub001/internal/domain"
)

// totalIndex encodes the total stratum in wire rows: the dimension id was
// NULL because the row aggregates across all values, which is distinct from a
// non-null id that failed name lookup.
const totalIndex = -1

var unknownLabels = map[domain.GroupingDimension]string{
	domain.GroupByActivityType:     "Unknown Activity Type",
	domain.GroupByActivityCategory: "Unknown Activity Category",
	domain.GroupByGeographicArea:   "Unknown Geographic Area",
	domain.GroupByVenue:            "Unknown Venue",
}

// Transform compresses raw grouped rows into the wire format: per-dimension
// lookup arrays plus integer-indexed data rows, and pagination metadata.
func Transform(
	rows []domain.GroupedRow,
	names map[domain.GroupingDimension]map[string]string,
	dims []domain.GroupingDimension,
	hasDateRange bool,
	totalCount int,
	pagination *domain.Pagination,
) *domain.WireResult {
	metricCols := domain.CurrentMetricColumns
	if hasDateRange {
		metricCols = domain.RangeMetricColumns
	}

	columns := make([]string, 0, len(dims)+len(metricCols))
	for _, dim := range dims {
		columns = append(columns, string(dim))
	}
	columns = append(columns, metricCols...)

	// Lookup arrays are ordered by first appearance in the row set, so index
	// assignment is deterministic for a given result.
	lookups := make(map[domain.GroupingDimension][]domain.LookupEntry, len(dims))
	indexes := make([]map[string]int, len(dims))
	for i, dim := range dims {
		indexes[i] = make(map[string]int)
		lookups[dim] = []domain.LookupEntry{}
		for _, row := range rows {
			id := row.DimensionIDs[i]
			if id == nil {
				continue
			}
			if _, ok := indexes[i][*id]; ok {
				continue
			}
			name, ok := names[dim][*id]
			if !ok {
				name = unknownLabels[dim]
			}
			indexes[i][*id] = len(lookups[dim])
			lookups[dim] = append(lookups[dim], domain.LookupEntry{ID: *id, Name: name})
		}
	}

	data := make([][]int, 0, len(rows))
	for _, row := range rows {
		encoded := make([]int, 0, len(dims)+len(row.Metrics))
		for i := range dims {
			if row.DimensionIDs[i] == nil {
				encoded = append(encoded, totalIndex)
			} else {
				encoded = append(encoded, indexes[i][*row.DimensionIDs[i]])
			}
		}
		encoded = append(encoded, row.Metrics...)
		data = append(data, encoded)
	}

	return &domain.WireResult{
		Columns:      columns,
		GroupedBy:    dims,
		HasDateRange: hasDateRange,
		Data:         data,
		Lookups:      lookups,
		PageInfo:     pageInfo(totalCount, pagination),
	}
}

// pageInfo computes pagination metadata. The unpaginated case reports one
// page containing everything.
func pageInfo(totalCount int, pagination *domain.Pagination) domain.PageInfo {
	if pagination == nil {
		return domain.PageInfo{
			Page:         1,
			PageSize:     totalCount,
			TotalRecords: totalCount,
			TotalPages:   1,
		}
	}

	totalPages := (totalCount + pagination.PageSize - 1) / pagination.PageSize
	return domain.PageInfo{
		Page:            pagination.Page,
		PageSize:        pagination.PageSize,
		TotalRecords:    totalCount,
		TotalPages:      totalPages,
		HasNextPage:     pagination.Page < totalPages,
		HasPreviousPage: pagination.Page > 1,
	}
}
