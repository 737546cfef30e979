package analytics

import (
	"context"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
	"github.com/sinanour/cultivate-sub001/internal/pkg/store"
	"golang.org/x/sync/errgroup"
)

// QueryExecutor is the execution layer the service drives; *Executor is the
// production implementation.
type QueryExecutor interface {
	Execute(ctx context.Context, q sq.Sqlizer) ([][]any, error)
	ExecuteWithCount(ctx context.Context, data, count sq.Sqlizer) ([][]any, int, error)
}

// Service orchestrates one analytics request: validate, resolve the
// geographic filter, compile, execute, fetch dimension names, transform.
type Service struct {
	store         store.Store
	executor      QueryExecutor
	resolver      *Resolver
	compiler      *Compiler
	dist          *DistributionBuilder
	defaultRoleID string
}

func NewService(st store.Store, executor QueryExecutor, defaultRoleID string) *Service {
	return &Service{
		store:         st,
		executor:      executor,
		resolver:      NewResolver(st),
		compiler:      NewCompiler(),
		dist:          NewDistributionBuilder(),
		defaultRoleID: defaultRoleID,
	}
}

// EngagementMetrics runs the main grouped engagement/growth aggregation and
// returns the compact wire result.
func (s *Service) EngagementMetrics(ctx context.Context, req domain.AnalyticsRequest, authorized domain.AuthorizedAreas) (*domain.WireResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	areas, err := s.resolver.Resolve(ctx, req.Filter.GeographicAreaIDs, authorized)
	if err != nil {
		return nil, err
	}

	compiled, err := s.compiler.Compile(req.Filter, req.GroupBy, req.Pagination, areas)
	if err != nil {
		return nil, err
	}

	raw, total, err := s.executor.ExecuteWithCount(ctx, compiled.Data, compiled.Count)
	if err != nil {
		return nil, err
	}

	rows, err := mapGroupedRows(raw, len(compiled.Dimensions), len(compiled.MetricColumns))
	if err != nil {
		return nil, err
	}

	names, err := s.dimensionNames(ctx, compiled.Dimensions, rows)
	if err != nil {
		return nil, err
	}

	return Transform(rows, names, compiled.Dimensions, compiled.HasDateRange, total, req.Pagination), nil
}

// RoleDistribution breaks participation down by role, bulk attendance
// included under the default role.
func (s *Service) RoleDistribution(ctx context.Context, filter domain.Filter, authorized domain.AuthorizedAreas) ([]domain.DistributionEntry, error) {
	return s.distribution(ctx, filter, authorized, DistributionByRole)
}

// VenueDistribution breaks participation down by current venue.
func (s *Service) VenueDistribution(ctx context.Context, filter domain.Filter, authorized domain.AuthorizedAreas) ([]domain.DistributionEntry, error) {
	return s.distribution(ctx, filter, authorized, DistributionByVenue)
}

// ListGeographicAreas returns the full area tree, for building filter UIs.
func (s *Service) ListGeographicAreas(ctx context.Context) ([]*domain.GeographicArea, error) {
	areas, err := s.store.ListGeographicAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.ListGeographicAreas: %w", err)
	}
	return areas, nil
}

func (s *Service) distribution(ctx context.Context, filter domain.Filter, authorized domain.AuthorizedAreas, dim DistributionDimension) ([]domain.DistributionEntry, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	areas, err := s.resolver.Resolve(ctx, filter.GeographicAreaIDs, authorized)
	if err != nil {
		return nil, err
	}

	query, err := s.dist.Compile(filter, dim, areas, s.defaultRoleID)
	if err != nil {
		return nil, err
	}

	raw, err := s.executor.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	type countedID struct {
		id    string
		count int
	}
	counted := make([]countedID, 0, len(raw))
	ids := make([]string, 0, len(raw))
	total := 0
	for _, row := range raw {
		if len(row) != 2 {
			return nil, constants.InternalError("distribution row has unexpected shape")
		}
		id, _ := row[0].(string)
		n, ok := asInt(row[1])
		if !ok {
			return nil, constants.InternalError("distribution count is not an integer")
		}
		counted = append(counted, countedID{id: id, count: n})
		if id != "" {
			ids = append(ids, id)
		}
		total += n
	}

	var names map[string]string
	switch dim {
	case DistributionByRole:
		names, err = s.store.RoleNames(ctx, ids)
	case DistributionByVenue:
		names, err = s.store.VenueNames(ctx, ids)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch distribution names: %w", err)
	}

	unknown := unknownLabels[domain.GroupByVenue]
	if dim == DistributionByRole {
		unknown = "Unknown Role"
	}

	entries := make([]domain.DistributionEntry, 0, len(counted))
	for _, c := range counted {
		name, ok := names[c.id]
		if !ok {
			name = unknown
		}
		entries = append(entries, domain.DistributionEntry{
			ID:    c.id,
			Name:  name,
			Count: c.count,
			Share: share(c.count, total),
		})
	}

	return entries, nil
}

// share renders count/total as a percentage with two decimal places.
func share(count, total int) string {
	if total == 0 {
		return "0"
	}
	return decimal.NewFromInt(int64(count) * 100).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		String()
}

// dimensionNames batch-fetches id->name per requested dimension, concurrently
// and only for identifiers actually present in the result set.
func (s *Service) dimensionNames(ctx context.Context, dims []domain.GroupingDimension, rows []domain.GroupedRow) (map[domain.GroupingDimension]map[string]string, error) {
	// Every dimension gets its entry before any goroutine starts, so the
	// goroutines only ever write distinct pre-existing keys under mu.
	names := make(map[domain.GroupingDimension]map[string]string, len(dims))
	for _, dim := range dims {
		names[dim] = map[string]string{}
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, dim := range dims {
		i, dim := i, dim
		ids := distinctDimensionIDs(rows, i)
		if len(ids) == 0 {
			continue
		}
		g.Go(func() error {
			fetched, err := s.lookupNames(gctx, dim, ids)
			if err != nil {
				return fmt.Errorf("lookup %s names: %w", dim, err)
			}
			mu.Lock()
			names[dim] = fetched
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return names, nil
}

func (s *Service) lookupNames(ctx context.Context, dim domain.GroupingDimension, ids []string) (map[string]string, error) {
	switch dim {
	case domain.GroupByActivityType:
		return s.store.ActivityTypeNames(ctx, ids)
	case domain.GroupByActivityCategory:
		return s.store.ActivityCategoryNames(ctx, ids)
	case domain.GroupByGeographicArea:
		return s.store.GeographicAreaNames(ctx, ids)
	case domain.GroupByVenue:
		return s.store.VenueNames(ctx, ids)
	default:
		return nil, constants.InternalError(fmt.Sprintf("unsupported grouping dimension %q", dim))
	}
}

func distinctDimensionIDs(rows []domain.GroupedRow, i int) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		id := row.DimensionIDs[i]
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		out = append(out, *id)
	}
	return out
}

// mapGroupedRows converts raw executor values into typed rows: dimCount
// nullable text columns followed by metricCount integer columns.
func mapGroupedRows(raw [][]any, dimCount, metricCount int) ([]domain.GroupedRow, error) {
	rows := make([]domain.GroupedRow, 0, len(raw))
	for _, values := range raw {
		if len(values) != dimCount+metricCount {
			return nil, constants.InternalError("aggregate row has unexpected shape")
		}
		row := domain.GroupedRow{
			DimensionIDs: make([]*string, dimCount),
			Metrics:      make([]int, 0, metricCount),
		}
		for i := 0; i < dimCount; i++ {
			switch v := values[i].(type) {
			case nil:
				row.DimensionIDs[i] = nil
			case string:
				id := v
				row.DimensionIDs[i] = &id
			default:
				return nil, constants.InternalError("dimension value is not text")
			}
		}
		for i := dimCount; i < len(values); i++ {
			n, ok := asInt(values[i])
			if !ok {
				return nil, constants.InternalError("metric value is not an integer")
			}
			row.Metrics = append(row.Metrics, n)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
