package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/training-crm/internal/application"
	"github.com/example/training-crm/internal/persistence"
	"github.com/example/training-crm/internal/testfixtures"
)

func TestLeadRepository_RoundTrip(t *testing.T) {
	t.Parallel()
	repo := NewLeadRepository(newTestPool(t))

	lead := testfixtures.NewLeadFixture().Application()
	created, err := repo.CreateLead(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, created.ID)
	assert.Equal(t, application.LeadStatusLead, created.Status)

	created.Status = application.LeadStatusStudent
	updated, err := repo.UpdateLead(context.Background(), created)
	require.NoError(t, err)
	assert.Equal(t, application.LeadStatusStudent, updated.Status)

	exists, err := repo.StudentExists(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.DeleteLead(context.Background(), lead.ID))
	_, err = repo.GetLead(context.Background(), lead.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestLeadRepository_ListFilters(t *testing.T) {
	t.Parallel()
	repo := NewLeadRepository(newTestPool(t))

	student := testfixtures.NewLeadFixture(
		testfixtures.WithLeadName("Maria Silva"),
		testfixtures.AsStudent(),
	).Application()
	cold := testfixtures.NewLeadFixture(
		testfixtures.WithLeadName("Joao Souza"),
	).Application()
	for _, lead := range []application.Lead{student, cold} {
		_, err := repo.CreateLead(context.Background(), lead)
		require.NoError(t, err)
	}

	students, err := repo.ListLeads(context.Background(), application.LeadFilter{
		Status: application.LeadStatusStudent,
	})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, student.ID, students[0].ID)

	byName, err := repo.ListLeads(context.Background(), application.LeadFilter{Search: "maria"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, student.ID, byName[0].ID)
}

func TestTrainerRepository_RoundTrip(t *testing.T) {
	t.Parallel()
	repo := NewTrainerRepository(newTestPool(t))

	trainer := testfixtures.NewTrainerFixture(
		testfixtures.WithTrainerSpecialties("strength", "pilates"),
	).Application()
	created, err := repo.CreateTrainer(context.Background(), trainer)
	require.NoError(t, err)
	assert.Equal(t, []string{"strength", "pilates"}, created.Specialties)

	exists, err := repo.TrainerExists(context.Background(), trainer.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	created.Active = false
	_, err = repo.UpdateTrainer(context.Background(), created)
	require.NoError(t, err)

	exists, err = repo.TrainerExists(context.Background(), trainer.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	active, err := repo.ListTrainers(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestTaskRepository_RoundTrip(t *testing.T) {
	t.Parallel()
	repo := NewTaskRepository(newTestPool(t))

	due := testfixtures.ReferenceTime().AddDate(0, 0, 7)
	task := testfixtures.NewTaskFixture(
		testfixtures.WithTaskDueDate(due),
		testfixtures.WithTaskLead("lead-001"),
	).Application()
	created, err := repo.CreateTask(context.Background(), task)
	require.NoError(t, err)
	require.NotNil(t, created.DueDate)
	assert.True(t, due.Equal(*created.DueDate))
	require.NotNil(t, created.RelatedLeadID)
	assert.Equal(t, "lead-001", *created.RelatedLeadID)

	status := application.TaskStatusCompleted
	updated, err := repo.UpdateTask(context.Background(), task.ID, application.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, application.TaskStatusCompleted, updated.Status)

	overdue := due.AddDate(0, 0, 1)
	listed, err := repo.ListTasks(context.Background(), application.TaskFilter{DueBefore: &overdue})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, repo.DeleteTask(context.Background(), task.ID))
	_, err = repo.GetTask(context.Background(), task.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}
