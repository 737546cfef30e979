package controller

import (
	"errors"
	"testing"

	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sPtr(s string) *string { return &s }

func TestToFilterParsesDates(t *testing.T) {
	req := engagementRequest{
		StartDate: sPtr("2025-01-01"),
		EndDate:   sPtr("2025-03-31"),
	}

	filter, err := req.toFilter()
	require.NoError(t, err)

	require.NotNil(t, filter.StartDate)
	require.NotNil(t, filter.EndDate)
	assert.Equal(t, "2025-01-01", filter.StartDate.Format(dateLayout))
	assert.Equal(t, "2025-03-31", filter.EndDate.Format(dateLayout))
}

func TestToFilterRejectsMalformedDate(t *testing.T) {
	req := engagementRequest{StartDate: sPtr("01/01/2025")}

	_, err := req.toFilter()
	require.Error(t, err)

	var ce *constants.CodedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, constants.KindValidation, ce.Kind())
	assert.Contains(t, ce.Message(), "startDate")
}

func TestToFilterPreservesAbsentVsEmpty(t *testing.T) {
	req := engagementRequest{VenueIDs: []string{}}

	filter, err := req.toFilter()
	require.NoError(t, err)

	assert.Nil(t, filter.ActivityTypeIDs, "absent filter stays nil")
	require.NotNil(t, filter.VenueIDs, "present-but-empty filter survives for downstream rejection")
	assert.Empty(t, filter.VenueIDs)
}

func TestParseIDList(t *testing.T) {
	valid := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	t.Run("valid identifiers pass through", func(t *testing.T) {
		ids, err := parseIDList("venueIds", []string{valid})
		require.NoError(t, err)
		assert.Equal(t, []string{valid}, ids)
	})

	t.Run("malformed identifier names the field", func(t *testing.T) {
		_, err := parseIDList("venueIds", []string{"not-a-uuid"})
		require.Error(t, err)

		var ce *constants.CodedError
		require.True(t, errors.As(err, &ce))
		assert.Contains(t, ce.Message(), "venueIds")
	})

	t.Run("nil stays nil", func(t *testing.T) {
		ids, err := parseIDList("venueIds", nil)
		require.NoError(t, err)
		assert.Nil(t, ids)
	})
}
