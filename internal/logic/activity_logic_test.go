package logic_test

import (
	"context"
	"testing"
	"time"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/logic"
	"github.com/blues/catalyst/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionForField(t *testing.T) {
	assert.Equal(t, model.ActivityStatusChanged, logic.ActionForField("status"))
	assert.Equal(t, model.ActivityAssigneeChanged, logic.ActionForField("assigneeId"))
	assert.Equal(t, model.ActivityReviewStatusChanged, logic.ActionForField("reviewStatus"))
	assert.Equal(t, model.ActivityUpdated, logic.ActionForField("description"))
}

func TestRecordChangeSkipsEqualValues(t *testing.T) {
	f := newFixture(t)
	task := f.taskFor(t, f.devA, model.TaskStatusTodo)

	due := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sameDue := due.In(time.FixedZone("UTC+8", 8*3600))
	hours := 3.0

	cases := []struct {
		field         string
		before, after interface{}
	}{
		{"status", model.TaskStatusTodo, model.TaskStatusTodo},
		{"dueDate", &due, sameDue},
		{"estimatedHours", hours, &hours},
		{"assigneeId", (*int64)(nil), nil},
	}
	for _, c := range cases {
		activity, err := f.activity.RecordChange(nil, task.Id, f.admin.Id, c.field, c.before, c.after)
		require.NoError(t, err, c.field)
		assert.Nil(t, activity, c.field)
	}
	assert.Empty(t, f.activities(t, task.Id))

	activity, err := f.activity.RecordChange(nil, task.Id, f.admin.Id, "description", "", "now with details")
	require.NoError(t, err)
	require.NotNil(t, activity)
	assert.Equal(t, model.ActivityUpdated, activity.Action)
	assert.Equal(t, "now with details", activity.NewValue)
	assert.Len(t, f.activities(t, task.Id), 1)
}

func TestRecordChangeKeepsSubSecondTimes(t *testing.T) {
	f := newFixture(t)
	task := f.taskFor(t, f.devA, model.TaskStatusTodo)

	due := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	later := due.Add(250 * time.Millisecond)

	activity, err := f.activity.RecordChange(nil, task.Id, f.admin.Id, "dueDate", &due, later)
	require.NoError(t, err)
	require.NotNil(t, activity)
	assert.Equal(t, model.ActivityDueDateChanged, activity.Action)
	assert.Equal(t, "2024-05-01T12:00:00Z", activity.OldValue)
	assert.Equal(t, "2024-05-01T12:00:00.25Z", activity.NewValue)

	// 微秒以下的差异不计
	activity, err = f.activity.RecordChange(nil, task.Id, f.admin.Id, "dueDate", later, later.Add(300*time.Nanosecond))
	require.NoError(t, err)
	assert.Nil(t, activity)
}

func TestActivitiesAreAppendOnly(t *testing.T) {
	f := newFixture(t)
	task := f.taskFor(t, f.devA, model.TaskStatusTodo)

	activity, err := f.activity.RecordChange(nil, task.Id, f.admin.Id, "status", model.TaskStatusTodo, model.TaskStatusBlocked)
	require.NoError(t, err)

	// 已持久化的记录不能再次写入
	assert.ErrorIs(t, f.activity.Record(nil, activity), model.ErrActivityImmutable)

	activity.NewValue = "COMPLETED"
	assert.ErrorIs(t, f.db.Save(activity).Error, model.ErrActivityImmutable)
	assert.ErrorIs(t, f.db.Delete(activity).Error, model.ErrActivityImmutable)

	acts := f.activities(t, task.Id)
	require.Len(t, acts, 1)
	assert.Equal(t, "BLOCKED", acts[0].NewValue)
}

func TestListTaskActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.taskFor(t, f.devA, model.TaskStatusTodo)

	_, err := f.activity.RecordChange(nil, task.Id, f.devA.Id, "status", model.TaskStatusTodo, model.TaskStatusInProgress)
	require.NoError(t, err)
	_, err = f.activity.RecordEvent(nil, task.Id, f.devA.Id, model.ActivityTimerStarted, map[string]interface{}{"timeEntryId": 1})
	require.NoError(t, err)

	acts, err := f.activity.ListTaskActivities(ctx, task.Id)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, model.ActivityTimerStarted, acts[0].Action)
	assert.Equal(t, `{"timeEntryId":1}`, acts[0].Metadata)
	require.NotNil(t, acts[0].User)
	assert.Equal(t, "alice", acts[0].User.Name)
	assert.Equal(t, model.ActivityStatusChanged, acts[1].Action)

	_, err = f.activity.ListTaskActivities(ctx, 31337)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
