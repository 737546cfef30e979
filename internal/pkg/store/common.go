package store

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
)

const (
	tableActivities             = "activities"
	tableActivityTypes          = "activity_types"
	tableActivityCategories     = "activity_categories"
	tableAssignments            = "assignments"
	tableVenues                 = "venues"
	tableActivityVenueHistory   = "activity_venue_history"
	tableGeographicAreas        = "geographic_areas"
	tableRoles                  = "roles"
	tableParticipantPopulations = "participant_populations"
)

var mapping = map[error]error{pgx.ErrNoRows: constants.ErrDBNotFound}

func wrapErr(err error) error {
	for k, v := range mapping {
		if errors.Is(err, k) {
			return v
		}
	}
	return err
}

// builder returns a squirrel statement builder with Postgres placeholders.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}
