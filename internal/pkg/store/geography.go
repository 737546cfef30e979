package store

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/logger"
)

var geographicAreaColumns = []string{"id", "name", "parent_geographic_area_id"}

// FindBatchDescendants returns the descendant closure of areaIDs, excluding
// the inputs themselves. Callers union the inputs back in when they want an
// inclusive closure.
func (s *store) FindBatchDescendants(ctx context.Context, areaIDs []string) ([]string, error) {
	if len(areaIDs) == 0 {
		return nil, nil
	}

	query := builder().Select("id").
		From("descendants").
		PrefixExpr(sq.Expr(`WITH RECURSIVE descendants AS (
SELECT ga.id FROM `+tableGeographicAreas+` ga WHERE ga.parent_geographic_area_id = ANY(?)
UNION
SELECT child.id FROM `+tableGeographicAreas+` child
JOIN descendants d ON child.parent_geographic_area_id = d.id
)`, areaIDs))

	rows, err := s.pool.Queryx(ctx, query)
	if err != nil {
		logger.Errorf(ctx, "FindBatchDescendants: %s", err.Error())
		return nil, wrapErr(err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapErr(err)
	}

	return ids, nil
}

func (s *store) ListGeographicAreas(ctx context.Context) ([]*domain.GeographicArea, error) {
	query := builder().Select(geographicAreaColumns...).
		From(tableGeographicAreas).
		OrderBy("name")

	rows, err := s.pool.Queryx(ctx, query)
	if err != nil {
		logger.Errorf(ctx, "ListGeographicAreas: %s", err.Error())
		return nil, wrapErr(err)
	}

	areas, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[domain.GeographicArea])
	if err != nil {
		return nil, wrapErr(err)
	}

	return areas, nil
}

func (s *store) GetGeographicAreaByID(ctx context.Context, id string) (*domain.GeographicArea, error) {
	query := builder().Select(geographicAreaColumns...).
		From(tableGeographicAreas).
		Where(sq.Eq{"id": id})

	row, err := s.pool.Getx(ctx, query)
	if err != nil {
		return nil, wrapErr(err)
	}

	var area domain.GeographicArea
	if err := row.Scan(&area.ID, &area.Name, &area.ParentID); err != nil {
		return nil, wrapErr(err)
	}

	return &area, nil
}
