package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
)

// GeographyRepository is the slice of the store the resolver needs.
type GeographyRepository interface {
	// FindBatchDescendants returns the descendant closure of areaIDs,
	// excluding the inputs.
	FindBatchDescendants(ctx context.Context, areaIDs []string) ([]string, error)
}

// AreaFilter is the resolver's output: either "no geographic constraint" or a
// concrete id set. The zero value is unconstrained; a constrained filter with
// an empty id list matches nothing.
type AreaFilter struct {
	constrained bool
	ids         []string
}

func (f AreaFilter) Constrained() bool { return f.constrained }

func (f AreaFilter) IDs() []string { return f.ids }

func constrainedAreas(ids []string) AreaFilter {
	sort.Strings(ids)
	return AreaFilter{constrained: true, ids: ids}
}

// Resolver expands and authorizes geographic-area filters before query
// compilation.
type Resolver struct {
	geo GeographyRepository
}

func NewResolver(geo GeographyRepository) *Resolver {
	return &Resolver{geo: geo}
}

// Resolve computes the effective area filter for a request.
//
// With an explicit filter, every requested id must sit inside the caller's
// authorized set (when restricted); the filter is then widened to include
// descendants and, when restricted, intersected with the authorized set
// again. With no explicit filter, a restricted caller gets their authorized
// set back untouched: it is already descendant-expanded and deny-subtracted,
// and re-expanding it would resurrect denied areas.
func (r *Resolver) Resolve(ctx context.Context, explicit []string, authorized domain.AuthorizedAreas) (AreaFilter, error) {
	if len(explicit) == 0 {
		if authorized.Restricted() {
			return constrainedAreas(authorized.IDs()), nil
		}
		return AreaFilter{}, nil
	}

	if authorized.Restricted() {
		for _, id := range explicit {
			if !authorized.Contains(id) {
				return AreaFilter{}, constants.AuthorizationDeniedError(id)
			}
		}
	}

	descendants, err := r.geo.FindBatchDescendants(ctx, explicit)
	if err != nil {
		return AreaFilter{}, fmt.Errorf("geo.FindBatchDescendants: %w", err)
	}

	seen := make(map[string]struct{}, len(explicit)+len(descendants))
	effective := make([]string, 0, len(explicit)+len(descendants))
	for _, id := range append(append([]string{}, explicit...), descendants...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if authorized.Restricted() && !authorized.Contains(id) {
			// A descendant outside the authorized set was denied upstream;
			// drop it rather than escalate.
			continue
		}
		effective = append(effective, id)
	}

	return constrainedAreas(effective), nil
}
