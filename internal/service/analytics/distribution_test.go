package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDefaultRoleID = "11111111-1111-1111-1111-111111111111"

func fixedDistributionBuilder(now time.Time) *DistributionBuilder {
	b := NewDistributionBuilder()
	b.now = func() time.Time { return now }
	return b
}

func TestDistributionRoleCombinesBothSources(t *testing.T) {
	b := NewDistributionBuilder()

	q, err := b.Compile(domain.Filter{}, DistributionByRole, AreaFilter{}, testDefaultRoleID)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "UNION ALL")
	assert.Contains(t, sql, "asg.role_id::text AS dim_id")
	assert.Contains(t, sql, "COUNT(DISTINCT asg.id) AS cnt")
	assert.Contains(t, sql, "SUM(a.additional_participant_count) AS cnt")
	assert.Contains(t, sql, "a.additional_participant_count > 0")
	assert.Contains(t, sql, "GROUP BY src.dim_id")
	assert.Contains(t, sql, "ORDER BY participant_count DESC, src.dim_id")
	assert.Contains(t, args, testDefaultRoleID, "bulk participation is attributed to the default role")
}

func TestDistributionBulkRowSuppressedOnEmptyInput(t *testing.T) {
	// The role-case bulk branch aggregates without GROUP BY, so an empty
	// input would otherwise still produce one (defaultRoleID, NULL) row and
	// a NULL grand total downstream.
	b := NewDistributionBuilder()

	q, err := b.Compile(domain.Filter{}, DistributionByRole, AreaFilter{}, testDefaultRoleID)
	require.NoError(t, err)

	sql, _, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "HAVING SUM(a.additional_participant_count) > 0")
}

func TestDistributionPopulationFilterDropsBulkSource(t *testing.T) {
	b := NewDistributionBuilder()
	filter := domain.Filter{PopulationIDs: []string{"p1"}}

	q, err := b.Compile(filter, DistributionByRole, AreaFilter{}, testDefaultRoleID)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "UNION ALL")
	assert.NotContains(t, sql, "additional_participant_count")
	assert.Contains(t, sql, "pp ON pp.participant_id = asg.participant_id")
	assert.NotContains(t, args, testDefaultRoleID)
}

func TestDistributionVenueGroupsByCurrentVenue(t *testing.T) {
	b := NewDistributionBuilder()

	q, err := b.Compile(domain.Filter{}, DistributionByVenue, AreaFilter{}, testDefaultRoleID)
	require.NoError(t, err)

	sql, _, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "avh.venue_id::text AS dim_id")
	assert.Contains(t, sql, "NOT EXISTS", "only the latest venue history entry counts")
	// Bulk attendees still group by venue rather than the default role.
	assert.Equal(t, 2, strings.Count(sql, "avh.venue_id::text AS dim_id"))
}

func TestDistributionDateRangeWindow(t *testing.T) {
	start, end := date("2025-01-01"), date("2025-03-31")
	b := NewDistributionBuilder()

	q, err := b.Compile(domain.Filter{StartDate: &start, EndDate: &end}, DistributionByRole, AreaFilter{}, testDefaultRoleID)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "a.start_date <= ")
	assert.Contains(t, args, start)
	assert.Contains(t, args, end)
}

func TestDistributionNoRangeUsesCurrentMembership(t *testing.T) {
	now := date("2025-06-15")
	b := fixedDistributionBuilder(now)

	q, err := b.Compile(domain.Filter{}, DistributionByRole, AreaFilter{}, testDefaultRoleID)
	require.NoError(t, err)

	_, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, args, now.UTC())
}

func TestDistributionAreaFilter(t *testing.T) {
	b := NewDistributionBuilder()
	areas := constrainedAreas([]string{"g1", "g2"})

	q, err := b.Compile(domain.Filter{}, DistributionByRole, areas, testDefaultRoleID)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "v.geographic_area_id IN")
	assert.Contains(t, args, "g1")
	assert.Contains(t, args, "g2")
}

func TestDistributionRejectsUnknownDimension(t *testing.T) {
	b := NewDistributionBuilder()

	_, err := b.Compile(domain.Filter{}, DistributionDimension("participant"), AreaFilter{}, testDefaultRoleID)
	require.Error(t, err)
}
