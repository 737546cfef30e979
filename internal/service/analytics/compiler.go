package analytics

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
)

// Table aliases used throughout the compiled SQL:
//
//	a   activities
//	at  activity_types
//	asg assignments
//	avh activity_venue_history (current record per activity)
//	v   venues
//	pp  participant_populations
const (
	tableActivities             = "activities"
	tableActivityTypes          = "activity_types"
	tableAssignments            = "assignments"
	tableVenues                 = "venues"
	tableActivityVenueHistory   = "activity_venue_history"
	tableParticipantPopulations = "participant_populations"
)

// membershipCond is the snapshot membership test: an activity is active at a
// reference date iff it has started and has not ended. Both boundary dates
// are inclusive. Takes the reference date twice.
const membershipCond = "a.start_date <= ? AND (a.end_date IS NULL OR a.end_date >= ?)"

// joinSet records which relations a predicate or grouping dimension needs, so
// joins are emitted only when something uses them.
type joinSet struct {
	activityTypes bool
	venueHistory  bool
	venues        bool
	populations   bool
}

func (j joinSet) union(o joinSet) joinSet {
	return joinSet{
		activityTypes: j.activityTypes || o.activityTypes,
		venueHistory:  j.venueHistory || o.venueHistory,
		venues:        j.venues || o.venues,
		populations:   j.populations || o.populations,
	}
}

// condition is one conjunctive filter predicate plus the joins it requires.
type condition struct {
	pred sq.Sqlizer
	need joinSet
}

// metric is one aggregate output column. SQL and args are kept raw because
// the zero-row suppression clause must repeat the full expression: Postgres
// evaluates HAVING before SELECT aliases exist.
type metric struct {
	alias string
	sql   string
	args  []any
}

func (m metric) column() sq.Sqlizer {
	return sq.Alias(sq.Expr(m.sql, m.args...), m.alias)
}

func (m metric) nonZero() sq.Sqlizer {
	return sq.Expr(m.sql+" <> 0", m.args...)
}

type dimensionSpec struct {
	column string
	need   joinSet
}

var dimensionSpecs = map[domain.GroupingDimension]dimensionSpec{
	domain.GroupByActivityType:     {column: "a.activity_type_id::text"},
	domain.GroupByActivityCategory: {column: "at.activity_category_id::text", need: joinSet{activityTypes: true}},
	domain.GroupByGeographicArea:   {column: "v.geographic_area_id::text", need: joinSet{venueHistory: true, venues: true}},
	domain.GroupByVenue:            {column: "avh.venue_id::text", need: joinSet{venueHistory: true}},
}

// CompiledQuery is an immutable data/count query pair plus the positional
// layout of the data query's result: len(Dimensions) text columns followed by
// len(MetricColumns) counts.
type CompiledQuery struct {
	Data          sq.SelectBuilder
	Count         sq.SelectBuilder
	Dimensions    []domain.GroupingDimension
	MetricColumns []string
	HasDateRange  bool
}

// Compiler turns validated filters, grouping dimensions, and pagination into
// a parameterized aggregate query. Compilation is pure CPU; nothing here
// touches the store.
type Compiler struct {
	now func() time.Time
}

func NewCompiler() *Compiler {
	return &Compiler{now: time.Now}
}

// Compile builds the data query and its paired count query. The caller must
// have validated the request and resolved the geographic filter already.
func (c *Compiler) Compile(
	filter domain.Filter,
	dims []domain.GroupingDimension,
	pagination *domain.Pagination,
	areas AreaFilter,
) (*CompiledQuery, error) {
	dimCols := make([]string, 0, len(dims))
	need := joinSet{}
	for _, dim := range dims {
		spec, ok := dimensionSpecs[dim]
		if !ok {
			return nil, constants.InternalError(fmt.Sprintf("unsupported grouping dimension %q", dim))
		}
		dimCols = append(dimCols, spec.column)
		need = need.union(spec.need)
	}

	conditions := filterConditions(filter, areas)
	for _, cond := range conditions {
		need = need.union(cond.need)
	}

	var metrics []metric
	if filter.HasDateRange() {
		metrics = rangeMetrics(*filter.StartDate, *filter.EndDate)
	} else {
		metrics = currentMetrics(c.now().UTC())
	}

	inner := c.baseQuery(dimCols, metrics, conditions, need)
	if len(dims) > 0 {
		inner = inner.GroupBy(groupingSets(dimCols)).Having(havingClause(dimCols, metrics))
	}

	data := inner
	if len(dims) > 0 {
		data = data.OrderBy(orderColumns(dimCols)...)
	}
	if pagination != nil {
		data = data.
			Limit(uint64(pagination.PageSize)).
			Offset(uint64((pagination.Page - 1) * pagination.PageSize))
	}

	count := builder().Select("COUNT(*)").FromSelect(inner, "grouped")

	return &CompiledQuery{
		Data:          data,
		Count:         count,
		Dimensions:    dims,
		MetricColumns: metricColumns(metrics),
		HasDateRange:  filter.HasDateRange(),
	}, nil
}

func (c *Compiler) baseQuery(dimCols []string, metrics []metric, conditions []condition, need joinSet) sq.SelectBuilder {
	q := builder().Select(dimCols...).From(tableActivities + " a")
	for _, m := range metrics {
		q = q.Column(m.column())
	}

	// Participant metrics always read assignments; the remaining joins are
	// elided unless a filter or dimension needs them.
	q = q.LeftJoin(tableAssignments + " asg ON asg.activity_id = a.id")
	if need.activityTypes {
		q = q.Join(tableActivityTypes + " at ON at.id = a.activity_type_id")
	}
	if need.venueHistory {
		// Only the most recent history record per activity is the current
		// venue; later records shadow earlier ones.
		q = q.LeftJoin(tableActivityVenueHistory + ` avh ON avh.activity_id = a.id AND NOT EXISTS (
SELECT 1 FROM ` + tableActivityVenueHistory + ` later
WHERE later.activity_id = avh.activity_id AND later.effective_date > avh.effective_date)`)
	}
	if need.venues {
		q = q.LeftJoin(tableVenues + " v ON v.id = avh.venue_id")
	}
	if need.populations {
		q = q.Join(tableParticipantPopulations + " pp ON pp.participant_id = asg.participant_id")
	}

	for _, cond := range conditions {
		q = q.Where(cond.pred)
	}

	return q
}

// filterConditions maps each present filter to a conjunctive predicate. It
// returns a fresh slice; nothing is accumulated in shared state.
func filterConditions(filter domain.Filter, areas AreaFilter) []condition {
	var out []condition
	if filter.ActivityTypeIDs != nil {
		out = append(out, condition{pred: sq.Eq{"a.activity_type_id": filter.ActivityTypeIDs}})
	}
	if filter.ActivityCategoryIDs != nil {
		out = append(out, condition{
			pred: sq.Eq{"at.activity_category_id": filter.ActivityCategoryIDs},
			need: joinSet{activityTypes: true},
		})
	}
	if filter.VenueIDs != nil {
		out = append(out, condition{
			pred: sq.Eq{"avh.venue_id": filter.VenueIDs},
			need: joinSet{venueHistory: true},
		})
	}
	if areas.Constrained() {
		out = append(out, condition{
			pred: sq.Eq{"v.geographic_area_id": areas.IDs()},
			need: joinSet{venueHistory: true, venues: true},
		})
	}
	if filter.PopulationIDs != nil {
		out = append(out, condition{
			pred: sq.Eq{"pp.population_id": filter.PopulationIDs},
			need: joinSet{populations: true},
		})
	}
	return out
}

// rangeMetrics are the 8 snapshot-pair metrics computed against the two range
// endpoints.
func rangeMetrics(start, end time.Time) []metric {
	return []metric{
		activitiesAt("activities_at_start", start),
		activitiesAt("activities_at_end", end),
		participantsAt("participants_at_start", start),
		participantsAt("participants_at_end", end),
		participationAt("participation_at_start", start),
		participationAt("participation_at_end", end),
		{
			alias: "activities_started",
			sql:   "COUNT(DISTINCT a.id) FILTER (WHERE a.start_date >= ? AND a.start_date <= ?)",
			args:  []any{start, end},
		},
		{
			alias: "activities_completed",
			sql:   "COUNT(DISTINCT a.id) FILTER (WHERE a.status = ? AND a.end_date >= ? AND a.end_date <= ?)",
			args:  []any{string(domain.ActivityStatusCompleted), start, end},
		},
	}
}

// currentMetrics are the 5 current-snapshot metrics, with now substituted for
// the reference date in the membership test.
func currentMetrics(now time.Time) []metric {
	return []metric{
		activitiesAt("active_activities", now),
		participantsAt("active_participants", now),
		participationAt("active_participation", now),
		{
			alias: "planned_activities",
			sql:   "COUNT(DISTINCT a.id) FILTER (WHERE a.status = ? AND a.start_date > ?)",
			args:  []any{string(domain.ActivityStatusPlanned), now},
		},
		{
			alias: "completed_activities",
			sql:   "COUNT(DISTINCT a.id) FILTER (WHERE a.status = ?)",
			args:  []any{string(domain.ActivityStatusCompleted)},
		},
	}
}

func activitiesAt(alias string, ref time.Time) metric {
	return metric{
		alias: alias,
		sql:   "COUNT(DISTINCT a.id) FILTER (WHERE " + membershipCond + ")",
		args:  []any{ref, ref},
	}
}

func participantsAt(alias string, ref time.Time) metric {
	return metric{
		alias: alias,
		sql:   "COUNT(DISTINCT asg.participant_id) FILTER (WHERE " + membershipCond + ")",
		args:  []any{ref, ref},
	}
}

// participationAt counts assignments rather than distinct participants;
// DISTINCT on the assignment id only guards against join fan-out.
func participationAt(alias string, ref time.Time) metric {
	return metric{
		alias: alias,
		sql:   "COUNT(DISTINCT asg.id) FILTER (WHERE " + membershipCond + ")",
		args:  []any{ref, ref},
	}
}

// groupingSets emits exactly two strata: the full-grain dimension combination
// and the unconditional total. Partial subsets are deliberately excluded to
// keep result cardinality bounded.
func groupingSets(dimCols []string) string {
	return fmt.Sprintf("GROUPING SETS ((%s), ())", strings.Join(dimCols, ", "))
}

// havingClause drops grouped rows whose metrics are all zero, except the
// total row, which is always preserved so callers can tell "no data at all"
// from "this dimension value has no data".
func havingClause(dimCols []string, metrics []metric) sq.Sqlizer {
	terms := make(sq.Or, 0, len(metrics)+1)
	totalMask := (1 << len(dimCols)) - 1
	terms = append(terms, sq.Expr(fmt.Sprintf("GROUPING(%s) = %d", strings.Join(dimCols, ", "), totalMask)))
	for _, m := range metrics {
		terms = append(terms, m.nonZero())
	}
	return terms
}

// orderColumns sorts by the dimension columns with nulls first, which floats
// the total row to the top of every page set.
func orderColumns(dimCols []string) []string {
	out := make([]string, 0, len(dimCols))
	for _, col := range dimCols {
		out = append(out, col+" NULLS FIRST")
	}
	return out
}

func metricColumns(metrics []metric) []string {
	out := make([]string, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, m.alias)
	}
	return out
}

// builder returns a squirrel statement builder with Postgres placeholders.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
