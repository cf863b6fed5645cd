package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonpro-booking/models"
)

func TestSalonSettings_UpdateWorkingHours(t *testing.T) {
	f := newFixture(t, "0")
	settings := NewSalonSettings(f.db)
	ctx := context.Background()

	_, err := settings.UpdateWorkingHours(ctx, f.salon.ID, map[string]models.DayHours{
		"MONDAY": {Open: "11:00", Close: "18:00"},
		"Sunday": {Closed: true},
	})
	require.NoError(t, err)

	salon, err := settings.Get(ctx, f.salon.ID)
	require.NoError(t, err)
	monday, ok := salon.HoursFor("monday")
	require.True(t, ok)
	assert.Equal(t, models.DayHours{Open: "11:00", Close: "18:00"}, monday)
	sunday, ok := salon.HoursFor("sunday")
	require.True(t, ok)
	assert.True(t, sunday.Closed)
	_, ok = salon.HoursFor("tuesday")
	assert.False(t, ok)

	booking := f.booking(pricingWithFee("0"), nil)
	_, err = booking.Create(ctx, f.input("2024-06-17", "10:30", f.haircut))
	requireCode(t, err, CodeOutsideHours)
	_, err = booking.Create(ctx, f.input("2024-06-18", "07:00", f.haircut))
	require.NoError(t, err, "tuesday has no entry")
}

func TestSalonSettings_UpdateWorkingHoursValidation(t *testing.T) {
	f := newFixture(t, "0")
	settings := NewSalonSettings(f.db)

	tests := []struct {
		name  string
		hours map[string]models.DayHours
		want  ErrorCode
	}{
		{name: "unknown day", hours: map[string]models.DayHours{"someday": {Open: "09:00", Close: "10:00"}}, want: CodeInvalidWorkingHours},
		{name: "bad open", hours: map[string]models.DayHours{"monday": {Open: "9am", Close: "10:00"}}, want: CodeInvalidWorkingHours},
		{name: "bad close", hours: map[string]models.DayHours{"monday": {Open: "09:00", Close: "24:30"}}, want: CodeInvalidWorkingHours},
		{name: "close before open", hours: map[string]models.DayHours{"monday": {Open: "18:00", Close: "09:00"}}, want: CodeInvalidWorkingHours},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := settings.UpdateWorkingHours(context.Background(), f.salon.ID, tt.hours)
			requireCode(t, err, tt.want)
		})
	}

	_, err := settings.UpdateWorkingHours(context.Background(), uuid.New(), map[string]models.DayHours{})
	requireCode(t, err, CodeSalonNotFound)
}

func TestSalonSettings_UpdateNotifications(t *testing.T) {
	f := newFixture(t, "0")
	settings := NewSalonSettings(f.db)
	ctx := context.Background()

	_, err := settings.UpdateNotifications(ctx, f.salon.ID, true, true)
	require.NoError(t, err)
	_, err = settings.UpdateNotifications(ctx, f.salon.ID, false, true)
	require.NoError(t, err)

	salon, err := settings.Get(ctx, f.salon.ID)
	require.NoError(t, err)
	assert.False(t, salon.WhatsAppNotifications)
	assert.True(t, salon.SMSNotifications)
}
