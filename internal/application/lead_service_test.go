package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/testfixtures"
)

func newLeadService(t *testing.T) (*application.LeadService, *testfixtures.Store) {
	t.Helper()
	store := testfixtures.NewStore()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("lead")
	return application.NewLeadService(store, ids.NextFunc(), clock.NowFunc(), nil), store
}

func TestLeadService_CreateLead(t *testing.T) {
	t.Parallel()

	t.Run("creates with defaults", func(t *testing.T) {
		t.Parallel()
		svc, _ := newLeadService(t)

		input := testfixtures.NewLeadFixture().Input()
		input.Status = ""
		created, err := svc.CreateLead(context.Background(), input)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, application.LeadStatusLead, created.Status)
		assert.False(t, created.EntryDate.IsZero())
	})

	t.Run("requires name and a contact channel", func(t *testing.T) {
		t.Parallel()
		svc, _ := newLeadService(t)

		_, err := svc.CreateLead(context.Background(), application.LeadInput{})
		var vErr *application.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "name")
		assert.Contains(t, vErr.FieldErrors, "contact")
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		t.Parallel()
		svc, _ := newLeadService(t)

		input := testfixtures.NewLeadFixture().Input()
		input.Email = "not-an-email"
		_, err := svc.CreateLead(context.Background(), input)
		var vErr *application.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "email")
	})
}

func TestLeadService_ConvertLead(t *testing.T) {
	t.Parallel()
	svc, store := newLeadService(t)

	fixture := testfixtures.NewLeadFixture()
	store.SeedLeads(fixture.Application())

	exists, err := svc.StudentExists(context.Background(), fixture.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	converted, err := svc.ConvertLead(context.Background(), fixture.ID)
	require.NoError(t, err)
	assert.Equal(t, application.LeadStatusStudent, converted.Status)

	exists, err = svc.StudentExists(context.Background(), fixture.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// Converting again is a no-op.
	again, err := svc.ConvertLead(context.Background(), fixture.ID)
	require.NoError(t, err)
	assert.Equal(t, application.LeadStatusStudent, again.Status)
}

func TestLeadService_StudentExistsUnknownID(t *testing.T) {
	t.Parallel()
	svc, _ := newLeadService(t)

	exists, err := svc.StudentExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLeadService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	svc, store := newLeadService(t)

	fixture := testfixtures.NewLeadFixture()
	store.SeedLeads(fixture.Application())

	input := fixture.Input()
	input.Name = "Renamed"
	updated, err := svc.UpdateLead(context.Background(), fixture.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	require.NoError(t, svc.DeleteLead(context.Background(), fixture.ID))
	_, err = svc.GetLead(context.Background(), fixture.ID)
	assert.ErrorIs(t, err, application.ErrNotFound)
}
