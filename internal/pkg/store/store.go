package store

import (
	"context"

	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/store/xpgx"
)

type Pool = xpgx.Pool

// Store is the read-side repository surface the analytics engine consumes.
// Entity writes belong to the CRUD services and are not represented here.
type Store interface {
	// Geography.
	FindBatchDescendants(ctx context.Context, areaIDs []string) ([]string, error)
	ListGeographicAreas(ctx context.Context) ([]*domain.GeographicArea, error)
	GetGeographicAreaByID(ctx context.Context, id string) (*domain.GeographicArea, error)

	// Dimension name lookups, batched by id set.
	ActivityTypeNames(ctx context.Context, ids []string) (map[string]string, error)
	ActivityCategoryNames(ctx context.Context, ids []string) (map[string]string, error)
	GeographicAreaNames(ctx context.Context, ids []string) (map[string]string, error)
	VenueNames(ctx context.Context, ids []string) (map[string]string, error)
	RoleNames(ctx context.Context, ids []string) (map[string]string, error)
}

type store struct {
	pool *Pool
}

func NewStore(pool *Pool) Store {
	return &store{pool: pool}
}
