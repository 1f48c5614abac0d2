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

func newTaskService(t *testing.T) (*application.TaskService, *testfixtures.Store) {
	t.Helper()
	store := testfixtures.NewStore()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("task")
	return application.NewTaskService(store, ids.NextFunc(), clock.NowFunc(), nil), store
}

func TestTaskService_CreateTask(t *testing.T) {
	t.Parallel()

	t.Run("defaults to pending", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTaskService(t)

		input := testfixtures.NewTaskFixture().Input()
		input.Status = ""
		created, err := svc.CreateTask(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, application.TaskStatusPending, created.Status)
	})

	t.Run("requires title and assignee", func(t *testing.T) {
		t.Parallel()
		svc, _ := newTaskService(t)

		_, err := svc.CreateTask(context.Background(), application.TaskInput{})
		var vErr *application.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "title")
		assert.Contains(t, vErr.FieldErrors, "assignee_id")
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	t.Parallel()
	svc, store := newTaskService(t)

	fixture := testfixtures.NewTaskFixture()
	store.SeedTasks(fixture.Application())

	status := application.TaskStatusCompleted
	updated, err := svc.UpdateTask(context.Background(), fixture.ID, application.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, application.TaskStatusCompleted, updated.Status)

	bad := application.TaskStatus("bogus")
	_, err = svc.UpdateTask(context.Background(), fixture.ID, application.TaskPatch{Status: &bad})
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestTaskService_ListByFilter(t *testing.T) {
	t.Parallel()
	svc, store := newTaskService(t)

	mine := testfixtures.NewTaskFixture(testfixtures.WithTaskAssignee("trainer-a"))
	other := testfixtures.NewTaskFixture(testfixtures.WithTaskAssignee("trainer-b"))
	store.SeedTasks(mine.Application(), other.Application())

	tasks, err := svc.ListTasks(context.Background(), application.TaskFilter{AssigneeID: "trainer-a"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, mine.ID, tasks[0].ID)
}
