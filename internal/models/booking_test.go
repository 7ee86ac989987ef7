package models_test

import (
	"errors"
	"testing"

	"github.com/navikt/roombooking/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatusTransitions(t *testing.T) {
	allowed := []struct {
		from   models.BookingStatus
		action models.Action
		to     models.BookingStatus
	}{
		{models.BookingStatusPending, models.ActionApprove, models.BookingStatusAccepted},
		{models.BookingStatusPending, models.ActionReject, models.BookingStatusRejected},
		{models.BookingStatusPending, models.ActionCancel, models.BookingStatusCancelled},
		{models.BookingStatusAccepted, models.ActionCancel, models.BookingStatusCancelled},
	}

	for _, tc := range allowed {
		next, err := tc.from.Next(tc.action)
		require.NoError(t, err, "%s + %s", tc.from, tc.action)
		assert.Equal(t, tc.to, next)
	}

	forbidden := []struct {
		from   models.BookingStatus
		action models.Action
	}{
		{models.BookingStatusAccepted, models.ActionApprove},
		{models.BookingStatusAccepted, models.ActionReject},
		{models.BookingStatusRejected, models.ActionApprove},
		{models.BookingStatusRejected, models.ActionReject},
		{models.BookingStatusRejected, models.ActionCancel},
		{models.BookingStatusCancelled, models.ActionApprove},
		{models.BookingStatusCancelled, models.ActionReject},
		{models.BookingStatusCancelled, models.ActionCancel},
	}

	for _, tc := range forbidden {
		next, err := tc.from.Next(tc.action)
		require.Error(t, err, "%s + %s", tc.from, tc.action)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		assert.Equal(t, tc.from, next, "status must be unchanged on failure")

		var trErr *models.InvalidTransitionError
		require.True(t, errors.As(err, &trErr))
		assert.Equal(t, tc.from, trErr.From)
		assert.Equal(t, tc.action, trErr.Action)
	}
}

func TestBookingStatusClassification(t *testing.T) {
	assert.True(t, models.BookingStatusPending.Occupies())
	assert.True(t, models.BookingStatusAccepted.Occupies())
	assert.False(t, models.BookingStatusRejected.Occupies())
	assert.False(t, models.BookingStatusCancelled.Occupies())

	assert.False(t, models.BookingStatusPending.IsTerminal())
	assert.False(t, models.BookingStatusAccepted.IsTerminal())
	assert.True(t, models.BookingStatusRejected.IsTerminal())
	assert.True(t, models.BookingStatusCancelled.IsTerminal())
}

func TestParseBookingStatus(t *testing.T) {
	for _, s := range []string{"pending", "accepted", "rejected", "cancelled"} {
		status, err := models.ParseBookingStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, status.String())
	}

	_, err := models.ParseBookingStatus("confirmed")
	assert.Error(t, err)
}
