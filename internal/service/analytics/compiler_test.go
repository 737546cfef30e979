package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func rangeFilter() domain.Filter {
	start, end := date("2024-01-10"), date("2024-01-31")
	return domain.Filter{StartDate: &start, EndDate: &end}
}

func TestCompileRangeModeMetrics(t *testing.T) {
	c := NewCompiler()

	compiled, err := c.Compile(rangeFilter(), []domain.GroupingDimension{domain.GroupByActivityType}, nil, AreaFilter{})
	require.NoError(t, err)

	sql, args, err := compiled.Data.ToSql()
	require.NoError(t, err)

	assert.True(t, compiled.HasDateRange)
	assert.Len(t, compiled.MetricColumns, 8)
	for _, alias := range []string{
		"activities_at_start", "activities_at_end",
		"participants_at_start", "participants_at_end",
		"participation_at_start", "participation_at_end",
		"activities_started", "activities_completed",
	} {
		assert.Contains(t, sql, alias)
	}
	assert.Contains(t, sql, "FILTER (WHERE a.start_date <= $")
	assert.Contains(t, sql, "GROUPING SETS ((a.activity_type_id::text), ())")
	assert.Contains(t, sql, "ORDER BY a.activity_type_id::text NULLS FIRST")
	assert.Contains(t, args, date("2024-01-10"))
	assert.Contains(t, args, date("2024-01-31"))
	assert.Contains(t, args, string(domain.ActivityStatusCompleted))
}

func TestCompileCurrentModeMetrics(t *testing.T) {
	now := date("2024-06-01")
	c := NewCompiler()
	c.now = func() time.Time { return now }

	compiled, err := c.Compile(domain.Filter{}, []domain.GroupingDimension{domain.GroupByActivityType}, nil, AreaFilter{})
	require.NoError(t, err)

	sql, args, err := compiled.Data.ToSql()
	require.NoError(t, err)

	assert.False(t, compiled.HasDateRange)
	assert.Len(t, compiled.MetricColumns, 5)
	assert.Contains(t, sql, "active_activities")
	assert.Contains(t, sql, "planned_activities")
	assert.Contains(t, sql, "completed_activities")
	assert.Contains(t, args, now.UTC())
	assert.Contains(t, args, string(domain.ActivityStatusPlanned))
	assert.Contains(t, args, string(domain.ActivityStatusCompleted))
}

func TestCompileHavingPreservesTotalRow(t *testing.T) {
	c := NewCompiler()

	dims := []domain.GroupingDimension{domain.GroupByActivityType, domain.GroupByActivityCategory}
	compiled, err := c.Compile(rangeFilter(), dims, nil, AreaFilter{})
	require.NoError(t, err)

	sql, _, err := compiled.Data.ToSql()
	require.NoError(t, err)

	// Two dimensions: the total row has both grouped out, mask 0b11.
	assert.Contains(t, sql, "GROUPING(a.activity_type_id::text, at.activity_category_id::text) = 3")
	// Suppression repeats the metric expressions; aliases are not yet
	// visible at HAVING time.
	assert.Contains(t, sql, "HAVING (GROUPING(")
	assert.Contains(t, sql, ") <> 0")
}

func TestCompilePagination(t *testing.T) {
	c := NewCompiler()

	compiled, err := c.Compile(rangeFilter(), []domain.GroupingDimension{domain.GroupByActivityType},
		&domain.Pagination{Page: 2, PageSize: 50}, AreaFilter{})
	require.NoError(t, err)

	sql, _, err := compiled.Data.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "LIMIT 50")
	assert.Contains(t, sql, "OFFSET 50")

	countSQL, _, err := compiled.Count.ToSql()
	require.NoError(t, err)
	assert.Contains(t, countSQL, "COUNT(*)")
	assert.NotContains(t, countSQL, "LIMIT")
	assert.NotContains(t, countSQL, "OFFSET")
	assert.NotContains(t, countSQL, "ORDER BY")
}

func TestCompileCountMatchesFilters(t *testing.T) {
	c := NewCompiler()

	filter := rangeFilter()
	filter.ActivityTypeIDs = []string{"t1", "t2"}
	compiled, err := c.Compile(filter, []domain.GroupingDimension{domain.GroupByActivityType},
		&domain.Pagination{Page: 1, PageSize: 10}, AreaFilter{})
	require.NoError(t, err)

	dataSQL, dataArgs, err := compiled.Data.ToSql()
	require.NoError(t, err)
	countSQL, countArgs, err := compiled.Count.ToSql()
	require.NoError(t, err)

	assert.Contains(t, dataSQL, "a.activity_type_id IN (")
	assert.Contains(t, countSQL, "a.activity_type_id IN (")
	assert.Contains(t, countArgs, "t1")
	// The count query drops only LIMIT/OFFSET; its argument list matches the
	// unpaginated data query.
	assert.Equal(t, len(dataArgs), len(countArgs))
}

func TestCompileJoinElision(t *testing.T) {
	c := NewCompiler()

	t.Run("no venue joins without venue concerns", func(t *testing.T) {
		compiled, err := c.Compile(rangeFilter(), []domain.GroupingDimension{domain.GroupByActivityType}, nil, AreaFilter{})
		require.NoError(t, err)
		sql, _, err := compiled.Data.ToSql()
		require.NoError(t, err)
		assert.NotContains(t, sql, "activity_venue_history")
		assert.NotContains(t, sql, "participant_populations")
	})

	t.Run("venue grouping joins current-venue history", func(t *testing.T) {
		compiled, err := c.Compile(rangeFilter(), []domain.GroupingDimension{domain.GroupByVenue}, nil, AreaFilter{})
		require.NoError(t, err)
		sql, _, err := compiled.Data.ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "activity_venue_history")
		assert.Contains(t, sql, "NOT EXISTS")
		assert.NotContains(t, sql, "JOIN venues")
	})

	t.Run("area grouping joins venues", func(t *testing.T) {
		compiled, err := c.Compile(rangeFilter(), []domain.GroupingDimension{domain.GroupByGeographicArea}, nil, AreaFilter{})
		require.NoError(t, err)
		sql, _, err := compiled.Data.ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "LEFT JOIN venues v ON v.id = avh.venue_id")
	})

	t.Run("population filter joins memberships", func(t *testing.T) {
		filter := rangeFilter()
		filter.PopulationIDs = []string{"p1"}
		compiled, err := c.Compile(filter, nil, nil, AreaFilter{})
		require.NoError(t, err)
		sql, _, err := compiled.Data.ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "participant_populations pp ON pp.participant_id = asg.participant_id")
	})
}

func TestCompileAreaFilter(t *testing.T) {
	c := NewCompiler()

	compiled, err := c.Compile(rangeFilter(), nil, nil, constrainedAreas([]string{"area1", "area2"}))
	require.NoError(t, err)

	sql, args, err := compiled.Data.ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "v.geographic_area_id IN (")
	assert.Contains(t, args, "area1")
	assert.Contains(t, args, "area2")
}

func TestCompileNoDimensionsSkipsGrouping(t *testing.T) {
	c := NewCompiler()

	compiled, err := c.Compile(rangeFilter(), nil, nil, AreaFilter{})
	require.NoError(t, err)

	sql, _, err := compiled.Data.ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "GROUP BY")
	assert.NotContains(t, sql, "HAVING")
	assert.NotContains(t, sql, "ORDER BY")
}

func TestCompileUnknownDimension(t *testing.T) {
	c := NewCompiler()

	_, err := c.Compile(rangeFilter(), []domain.GroupingDimension{"sneaky"}, nil, AreaFilter{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "sneaky"))
}
