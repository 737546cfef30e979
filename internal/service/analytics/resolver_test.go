package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeoRepo struct {
	descendants map[string][]string
	calls       int
}

func (f *fakeGeoRepo) FindBatchDescendants(_ context.Context, areaIDs []string) ([]string, error) {
	f.calls++
	var out []string
	for _, id := range areaIDs {
		out = append(out, f.descendants[id]...)
	}
	return out, nil
}

func TestResolveUnrestrictedNoFilter(t *testing.T) {
	geo := &fakeGeoRepo{}
	r := NewResolver(geo)

	filter, err := r.Resolve(context.Background(), nil, domain.NewAuthorizedAreas(nil, false))
	require.NoError(t, err)

	assert.False(t, filter.Constrained())
	assert.Zero(t, geo.calls)
}

func TestResolveRestrictedNoFilterReturnsAuthorizedUnmodified(t *testing.T) {
	// The authorized set is already descendant-expanded and deny-subtracted;
	// re-expanding it could resurrect denied areas.
	geo := &fakeGeoRepo{descendants: map[string][]string{"a": {"denied-child"}}}
	r := NewResolver(geo)

	authorized := domain.NewAuthorizedAreas([]string{"a", "b"}, true)
	filter, err := r.Resolve(context.Background(), nil, authorized)
	require.NoError(t, err)

	assert.True(t, filter.Constrained())
	assert.ElementsMatch(t, []string{"a", "b"}, filter.IDs())
	assert.Zero(t, geo.calls, "authorized set must not be re-expanded")
}

func TestResolveExplicitFilterExpandsDescendants(t *testing.T) {
	geo := &fakeGeoRepo{descendants: map[string][]string{"root": {"child1", "child2"}}}
	r := NewResolver(geo)

	filter, err := r.Resolve(context.Background(), []string{"root"}, domain.NewAuthorizedAreas(nil, false))
	require.NoError(t, err)

	assert.True(t, filter.Constrained())
	assert.ElementsMatch(t, []string{"root", "child1", "child2"}, filter.IDs())
}

func TestResolveDeniedExplicitFilter(t *testing.T) {
	geo := &fakeGeoRepo{}
	r := NewResolver(geo)

	authorized := domain.NewAuthorizedAreas([]string{"a"}, true)
	_, err := r.Resolve(context.Background(), []string{"b"}, authorized)
	require.Error(t, err)

	var ce *constants.CodedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, constants.KindAuthorizationDenied, ce.Kind())
	assert.Zero(t, geo.calls, "denied requests must not reach the repository")
}

func TestResolveRestrictedIntersectsDescendants(t *testing.T) {
	// "root" is authorized, one of its freshly-expanded descendants is not
	// (denied upstream); the denied descendant must be dropped, never
	// escalated.
	geo := &fakeGeoRepo{descendants: map[string][]string{"root": {"ok-child", "denied-child"}}}
	r := NewResolver(geo)

	authorized := domain.NewAuthorizedAreas([]string{"root", "ok-child"}, true)
	filter, err := r.Resolve(context.Background(), []string{"root"}, authorized)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"root", "ok-child"}, filter.IDs())
	for _, id := range filter.IDs() {
		assert.True(t, authorized.Contains(id))
	}
}

func TestResolveDeduplicatesClosure(t *testing.T) {
	geo := &fakeGeoRepo{descendants: map[string][]string{
		"a": {"shared"},
		"b": {"shared"},
	}}
	r := NewResolver(geo)

	filter, err := r.Resolve(context.Background(), []string{"a", "b"}, domain.NewAuthorizedAreas(nil, false))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "b", "shared"}, filter.IDs())
}
