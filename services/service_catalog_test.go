package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCatalog_CreateAndList(t *testing.T) {
	f := newFixture(t, "0")
	catalog := NewServiceCatalog(f.db)
	ctx := context.Background()

	created, err := catalog.Create(ctx, f.salon.ID, ServiceInput{
		Name:     "  Manicure ",
		Price:    money("300"),
		Duration: 40,
		Options:  []OptionInput{{Name: "Gel", Price: money("450.499")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Manicure", created.Name)
	assert.Equal(t, "General", created.Category)
	require.Len(t, created.Options, 1)
	assertMoney(t, "450.5", created.Options[0].Price, "option price rounded")

	services, err := catalog.List(ctx, f.salon.ID, false)
	require.NoError(t, err)
	var names []string
	for _, s := range services {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Color", "Facial", "Haircut", "Manicure"}, names)

	got, err := catalog.Get(ctx, f.salon.ID, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Options, 1)
	assert.Equal(t, "Gel", got.Options[0].Name)

	_, err = catalog.Get(ctx, uuid.New(), created.ID)
	requireCode(t, err, CodeServiceNotFound)
}

func TestServiceCatalog_Validation(t *testing.T) {
	f := newFixture(t, "0")
	catalog := NewServiceCatalog(f.db)

	tests := []struct {
		name string
		in   ServiceInput
	}{
		{name: "blank name", in: ServiceInput{Name: " ", Price: money("10"), Duration: 10}},
		{name: "negative price", in: ServiceInput{Name: "Trim", Price: money("-1"), Duration: 10}},
		{name: "negative duration", in: ServiceInput{Name: "Trim", Price: money("10"), Duration: -5}},
		{name: "unnamed option", in: ServiceInput{Name: "Trim", Price: money("10"), Options: []OptionInput{{Price: money("5")}}}},
		{name: "negative option", in: ServiceInput{Name: "Trim", Price: money("10"), Options: []OptionInput{{Name: "x", Price: money("-5")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Create(context.Background(), f.salon.ID, tt.in)
			requireCode(t, err, CodeInvalidServiceDefinition)
		})
	}
}

func TestServiceCatalog_UpdateReplacesOptions(t *testing.T) {
	f := newFixture(t, "0")
	catalog := NewServiceCatalog(f.db)
	ctx := context.Background()

	price := money("550")
	options := []OptionInput{{Name: "Platinum", Price: money("900")}, {Name: "Silver", Price: money("600")}}
	updated, err := catalog.Update(ctx, f.salon.ID, f.facial.ID, ServiceUpdate{Price: &price, Options: &options})
	require.NoError(t, err)
	assertMoney(t, "550", updated.Price, "price")
	assert.Equal(t, "Facial", updated.Name)

	got, err := catalog.Get(ctx, f.salon.ID, f.facial.ID)
	require.NoError(t, err)
	assertMoney(t, "550", got.Price, "stored price")
	require.Len(t, got.Options, 2)
	assert.Nil(t, got.FindOption(f.gold.ID), "old option removed")

	blank := ""
	_, err = catalog.Update(ctx, f.salon.ID, f.facial.ID, ServiceUpdate{Name: &blank})
	requireCode(t, err, CodeInvalidServiceDefinition)
}

func TestServiceCatalog_LockedByLiveAppointment(t *testing.T) {
	f := newFixture(t, "0")
	catalog := NewServiceCatalog(f.db)
	booking := f.booking(pricingWithFee("0"), nil)
	ctx := context.Background()

	appt, err := booking.Create(ctx, f.input("2024-06-17", "10:00", f.haircut))
	require.NoError(t, err)

	price := money("300")
	_, err = catalog.Update(ctx, f.salon.ID, f.haircut.ID, ServiceUpdate{Price: &price})
	requireCode(t, err, CodeServiceLocked)
	requireCode(t, catalog.Delete(ctx, f.salon.ID, f.haircut.ID), CodeServiceLocked)

	require.NoError(t, catalog.Delete(ctx, f.salon.ID, f.color.ID), "unreferenced service")

	_, err = booking.UpdateStatus(ctx, f.salon.ID, appt.ID, "Completed")
	require.NoError(t, err)
	require.NoError(t, catalog.Delete(ctx, f.salon.ID, f.haircut.ID))

	active, err := catalog.List(ctx, f.salon.ID, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Facial", active[0].Name)

	all, err := catalog.List(ctx, f.salon.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	stored, err := booking.Get(ctx, f.salon.ID, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Haircut", stored.Services[0].ServiceName)

	_, err = booking.Create(ctx, f.input("2024-06-18", "10:00", f.haircut))
	requireCode(t, err, CodeServiceNotFound)
}
