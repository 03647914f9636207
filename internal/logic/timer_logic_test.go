package logic_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/logic"
	"github.com/blues/catalyst/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTimerStartStopScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := actorOf(f.devA)
	taskT := f.taskFor(t, f.devA, model.TaskStatusInProgress)
	taskU := f.taskFor(t, f.devA, model.TaskStatusInProgress)

	first, err := f.timer.StartTimer(ctx, alice, taskT.Id, "")
	require.NoError(t, err)
	assert.True(t, first.IsRunning())
	assert.Nil(t, first.Duration)

	f.clock.Set(10, 0, 30)
	_, err = f.timer.StartTimer(ctx, alice, taskU.Id, "")
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	f.clock.Set(10, 5, 0)
	stopped, err := f.timer.StopTimer(ctx, alice, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, stopped.Duration)
	assert.Equal(t, int64(300), *stopped.Duration)
	assert.Equal(t, first.Id, stopped.Id)
	assert.False(t, stopped.Flagged)

	second, err := f.timer.StartTimer(ctx, alice, taskU.Id, "")
	require.NoError(t, err)
	assert.Equal(t, taskU.Id, second.TaskId)
	assert.Equal(t, int64(1), f.runningCount(t, f.devA.Id))

	acts := f.activities(t, taskT.Id)
	require.Len(t, acts, 2)
	assert.Equal(t, model.ActivityTimerStarted, acts[0].Action)
	assert.Equal(t, model.ActivityTimerStopped, acts[1].Action)
	assert.Contains(t, acts[1].Metadata, `"duration":300`)
}

func TestStartTimerConcurrentOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	alice := actorOf(f.devA)
	task := f.taskFor(t, f.devA, model.TaskStatusInProgress)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.timer.StartTimer(context.Background(), alice, task.Id, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperror.IsKind(err, apperror.KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, int64(1), f.runningCount(t, f.devA.Id))
}

func TestStartTimerLosesInsertRace(t *testing.T) {
	f := newFixture(t)
	task := f.taskFor(t, f.devA, model.TaskStatusInProgress)

	// 在运行中检查之后、插入之前写入另一条运行中的记录，由部分唯一索引拒绝本次插入
	raced := false
	err := f.db.Callback().Create().Before("gorm:create").Register("test:competing_timer", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "time_entries" {
			return
		}
		raced = true
		now := f.clock.Now()
		if err := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO time_entries (created_at, updated_at, task_id, user_id, start_time, notes, is_billable, flagged, flag_reason) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			now, now, task.Id, f.devA.Id, now, "", true, false, "",
		).Error; err != nil {
			tx.AddError(err)
		}
	})
	require.NoError(t, err)

	_, err = f.timer.StartTimer(context.Background(), actorOf(f.devA), task.Id, "")
	require.True(t, raced)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict), "got %v", err)

	// 事务整体回滚
	assert.Equal(t, int64(0), f.runningCount(t, f.devA.Id))
	assert.Empty(t, f.activities(t, task.Id))
}

func TestStartTimerPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.taskFor(t, f.devA, model.TaskStatusInProgress)

	_, err := f.timer.StartTimer(ctx, actorOf(f.devB), task.Id, "")
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))

	unassigned := f.taskFor(t, nil, model.TaskStatusTodo)
	_, err = f.timer.StartTimer(ctx, actorOf(f.devA), unassigned.Id, "")
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))

	_, err = f.timer.StartTimer(ctx, actorOf(f.qc), task.Id, "qa pass")
	assert.NoError(t, err)

	_, err = f.timer.StartTimer(ctx, actorOf(f.devA), 9999, "")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestStopTimerClampsClockSkew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := actorOf(f.devA)
	task := f.taskFor(t, f.devA, model.TaskStatusInProgress)

	_, err := f.timer.StartTimer(ctx, alice, task.Id, "")
	require.NoError(t, err)

	f.clock.Set(9, 59, 0)
	notes := "clock went backwards"
	stopped, err := f.timer.StopTimer(ctx, alice, nil, &notes)
	require.NoError(t, err)
	require.NotNil(t, stopped.Duration)
	assert.Equal(t, int64(0), *stopped.Duration)
	assert.True(t, stopped.Flagged)
	assert.Equal(t, model.FlagReasonClockSkew, stopped.FlagReason)
	assert.Equal(t, notes, stopped.Notes)

	acts := f.activities(t, task.Id)
	require.Len(t, acts, 2)
	assert.Contains(t, acts[1].Metadata, `"clockSkew":true`)
}

func TestStopTimerOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.taskFor(t, f.devA, model.TaskStatusInProgress)

	entry, err := f.timer.StartTimer(ctx, actorOf(f.devA), task.Id, "")
	require.NoError(t, err)

	_, err = f.timer.StopTimer(ctx, actorOf(f.devB), &entry.Id, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))

	_, err = f.timer.StopTimer(ctx, actorOf(f.qc), &entry.Id, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))

	f.clock.Set(10, 1, 0)
	stopped, err := f.timer.StopTimer(ctx, actorOf(f.admin), &entry.Id, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(60), *stopped.Duration)

	_, err = f.timer.StopTimer(ctx, actorOf(f.devA), &entry.Id, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestStopTimerWithoutRunningEntry(t *testing.T) {
	f := newFixture(t)

	_, err := f.timer.StopTimer(context.Background(), actorOf(f.devA), nil, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))

	missing := int64(12345)
	_, err = f.timer.StopTimer(context.Background(), actorOf(f.devA), &missing, nil)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetActiveTimer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.taskFor(t, f.devA, model.TaskStatusInProgress)

	active, err := f.timer.GetActiveTimer(ctx, f.devA.Id)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = f.timer.StartTimer(ctx, actorOf(f.devA), task.Id, "")
	require.NoError(t, err)

	f.clock.Set(10, 2, 5)
	active, err = f.timer.GetActiveTimer(ctx, f.devA.Id)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, int64(125), active.ElapsedSeconds)
	require.NotNil(t, active.Task)
	assert.Equal(t, task.Id, active.Task.Id)
	assert.Equal(t, int64(1), f.runningCount(t, f.devA.Id))
}

func TestCreateManualEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := actorOf(f.devA)
	task := f.taskFor(t, f.devA, model.TaskStatusInProgress)
	start := time.Date(2024, 2, 28, 9, 0, 0, 0, time.UTC)

	_, err := f.timer.CreateManualEntry(ctx, alice, logic.ManualEntryInput{
		TaskId:    task.Id,
		StartTime: start,
		EndTime:   start,
	})
	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "endTime")

	// 运行中的计时器不影响手动补录
	_, err = f.timer.StartTimer(ctx, alice, task.Id, "")
	require.NoError(t, err)

	billable := false
	entry, err := f.timer.CreateManualEntry(ctx, alice, logic.ManualEntryInput{
		TaskId:     task.Id,
		StartTime:  start,
		EndTime:    start.Add(90 * time.Minute),
		Notes:      "pairing",
		IsBillable: &billable,
	})
	require.NoError(t, err)
	assert.False(t, entry.IsRunning())
	assert.Equal(t, int64(5400), *entry.Duration)
	assert.False(t, entry.IsBillable)

	_, err = f.timer.CreateManualEntry(ctx, actorOf(f.devB), logic.ManualEntryInput{
		TaskId:    task.Id,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))
}
