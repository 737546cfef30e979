package analytics

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
)

// DistributionDimension selects the single grouping key of a breakdown.
type DistributionDimension string

const (
	DistributionByRole  DistributionDimension = "role"
	DistributionByVenue DistributionDimension = "venue"
)

// DistributionBuilder compiles single-dimension count queries (e.g.
// assignment counts by role) over the same filter vocabulary as the main
// compiler, without grouping sets or zero-row suppression.
//
// Participation has two sources: individual assignment rows, and the bulk
// additional_participant_count carried on the activity itself for attendees
// never assigned individually. The two are combined with a UNION ALL before
// the final grouping; bulk counts are attributed to the designated default
// role.
type DistributionBuilder struct {
	now func() time.Time
}

func NewDistributionBuilder() *DistributionBuilder {
	return &DistributionBuilder{now: time.Now}
}

// Compile builds the breakdown query. Rows come back as (dim_id text,
// participant_count bigint) ordered by count descending.
func (b *DistributionBuilder) Compile(
	filter domain.Filter,
	dim DistributionDimension,
	areas AreaFilter,
	defaultRoleID string,
) (sq.Sqlizer, error) {
	if dim != DistributionByRole && dim != DistributionByVenue {
		return nil, constants.InternalError(fmt.Sprintf("unsupported distribution dimension %q", dim))
	}

	conditions := filterConditions(filter, areas)
	window := b.activeWindowCond(filter)

	assign := b.assignmentBranch(dim, conditions, window)

	union := assign
	if filter.PopulationIDs == nil {
		// Bulk attendees carry no participant identity, so a population
		// filter can never match them; the bulk source is dropped entirely
		// under that filter.
		bulkSQL, bulkArgs, err := b.bulkBranch(dim, conditions, window, defaultRoleID).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build bulk branch: %w", err)
		}
		union = union.Suffix("UNION ALL ("+bulkSQL+")", bulkArgs...)
	}

	return builder().
		Select("src.dim_id", "SUM(src.cnt) AS participant_count").
		FromSelect(union, "src").
		GroupBy("src.dim_id").
		OrderBy("participant_count DESC", "src.dim_id"), nil
}

func (b *DistributionBuilder) assignmentBranch(dim DistributionDimension, conditions []condition, window sq.Sqlizer) sq.SelectBuilder {
	dimCol := "asg.role_id::text"
	need := joinSet{}
	if dim == DistributionByVenue {
		dimCol = "avh.venue_id::text"
		need.venueHistory = true
	}

	q := sq.Select(dimCol+" AS dim_id", "COUNT(DISTINCT asg.id) AS cnt").
		From(tableActivities + " a").
		Join(tableAssignments + " asg ON asg.activity_id = a.id").
		Where(window).
		GroupBy(dimCol)

	return b.applyConditions(q, conditions, need, true)
}

func (b *DistributionBuilder) bulkBranch(dim DistributionDimension, conditions []condition, window sq.Sqlizer, defaultRoleID string) sq.SelectBuilder {
	need := joinSet{}
	var q sq.SelectBuilder
	if dim == DistributionByVenue {
		need.venueHistory = true
		q = sq.Select("avh.venue_id::text AS dim_id", "SUM(a.additional_participant_count) AS cnt").
			From(tableActivities + " a").
			GroupBy("avh.venue_id")
	} else {
		q = sq.Select().
			Column(sq.Expr("?::text AS dim_id", defaultRoleID)).
			Column("SUM(a.additional_participant_count) AS cnt").
			From(tableActivities + " a")
	}

	q = q.Where(window).Where("a.additional_participant_count > 0")
	if dim != DistributionByVenue {
		// Without GROUP BY the SUM still yields one row over an empty input,
		// with a NULL count. Suppress it rather than surface (role, NULL).
		q = q.Having("SUM(a.additional_participant_count) > 0")
	}

	return b.applyConditions(q, conditions, need, false)
}

// applyConditions attaches filter predicates and the joins they require.
// Predicates that read assignment-side relations are only legal in the
// assignment branch.
func (b *DistributionBuilder) applyConditions(q sq.SelectBuilder, conditions []condition, need joinSet, withAssignments bool) sq.SelectBuilder {
	for _, cond := range conditions {
		if cond.need.populations && !withAssignments {
			continue
		}
		need = need.union(cond.need)
		q = q.Where(cond.pred)
	}

	if need.activityTypes {
		q = q.Join(tableActivityTypes + " at ON at.id = a.activity_type_id")
	}
	if need.venueHistory {
		q = q.LeftJoin(tableActivityVenueHistory + ` avh ON avh.activity_id = a.id AND NOT EXISTS (
SELECT 1 FROM ` + tableActivityVenueHistory + ` later
WHERE later.activity_id = avh.activity_id AND later.effective_date > avh.effective_date)`)
	}
	if need.venues {
		q = q.LeftJoin(tableVenues + " v ON v.id = avh.venue_id")
	}
	if need.populations && withAssignments {
		q = q.Join(tableParticipantPopulations + " pp ON pp.participant_id = asg.participant_id")
	}

	return q
}

// activeWindowCond admits activities overlapping the filter range, or active
// right now when no range was given.
func (b *DistributionBuilder) activeWindowCond(filter domain.Filter) sq.Sqlizer {
	if filter.HasDateRange() {
		return sq.Expr("a.start_date <= ? AND (a.end_date IS NULL OR a.end_date >= ?)",
			*filter.EndDate, *filter.StartDate)
	}
	now := b.now().UTC()
	return sq.Expr(membershipCond, now, now)
}
