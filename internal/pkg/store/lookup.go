package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/sinanour/cultivate-sub001/internal/pkg/logger"
)

// findNames fetches id->name for the given ids from a dimension table. It is
// always batched by explicit id set, never a full-table fetch.
func (s *store) findNames(ctx context.Context, table string, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	query := builder().Select("id", "name").
		From(table).
		Where(sq.Eq{"id": ids})

	rows, err := s.pool.Queryx(ctx, query)
	if err != nil {
		logger.Errorf(ctx, "findNames %s: %s", table, err.Error())
		return nil, wrapErr(err)
	}
	defer rows.Close()

	names := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, wrapErr(err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}

	return names, nil
}

func (s *store) ActivityTypeNames(ctx context.Context, ids []string) (map[string]string, error) {
	return s.findNames(ctx, tableActivityTypes, ids)
}

func (s *store) ActivityCategoryNames(ctx context.Context, ids []string) (map[string]string, error) {
	return s.findNames(ctx, tableActivityCategories, ids)
}

func (s *store) GeographicAreaNames(ctx context.Context, ids []string) (map[string]string, error) {
	return s.findNames(ctx, tableGeographicAreas, ids)
}

func (s *store) VenueNames(ctx context.Context, ids []string) (map[string]string, error) {
	return s.findNames(ctx, tableVenues, ids)
}

func (s *store) RoleNames(ctx context.Context, ids []string) (map[string]string, error) {
	return s.findNames(ctx, tableRoles, ids)
}
