package logic_test

import (
	"sync"
	"testing"
	"time"

	"github.com/blues/catalyst/internal/logic"
	"github.com/blues/catalyst/internal/model"
	"github.com/blues/catalyst/internal/policy"
	"github.com/blues/catalyst/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeClock 可手动拨动的时钟
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(hour, min, sec int) *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, hour, min, sec, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(hour, min, sec int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Date(2024, 3, 1, hour, min, sec, 0, time.UTC)
}

type fixture struct {
	db       *gorm.DB
	clock    *fakeClock
	activity *logic.ActivityLogic
	timer    *logic.TimerLogic
	entries  *logic.TimeEntryLogic
	tasks    *logic.TaskLogic
	review   *logic.ReviewLogic

	project *model.ProjectModel
	admin   *model.UserModel
	qc      *model.UserModel
	devA    *model.UserModel
	devB    *model.UserModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := newFakeClock(10, 0, 0)
	activity := logic.NewActivityLogic(db)

	f := &fixture{
		db:       db,
		clock:    clock,
		activity: activity,
		timer:    logic.NewTimerLogic(db, activity).WithClock(clock.Now),
		entries:  logic.NewTimeEntryLogic(db).WithClock(clock.Now),
		tasks:    logic.NewTaskLogic(db, activity),
		review:   logic.NewReviewLogic(db, activity).WithClock(clock.Now),
	}
	f.project = testutil.CreateProject(t, db, "apollo")
	f.admin = testutil.CreateUser(t, db, "admin", model.RoleAdmin)
	f.qc = testutil.CreateUser(t, db, "quinn", model.RoleQC)
	f.devA = testutil.CreateUser(t, db, "alice", model.RoleDeveloper)
	f.devB = testutil.CreateUser(t, db, "bob", model.RoleDeveloper)
	return f
}

func actorOf(u *model.UserModel) policy.Actor {
	return policy.Actor{Id: u.Id, Role: u.Role}
}

func (f *fixture) taskFor(t *testing.T, assignee *model.UserModel, status model.TaskStatus) *model.TaskModel {
	t.Helper()
	return testutil.CreateTask(t, f.db, f.project, f.admin, assignee, status)
}

func (f *fixture) activities(t *testing.T, taskId int64) []model.TaskActivityModel {
	t.Helper()
	var rows []model.TaskActivityModel
	require.NoError(t, f.db.Where("task_id = ?", taskId).Order("id ASC").Find(&rows).Error)
	return rows
}

func (f *fixture) runningCount(t *testing.T, userId int64) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&model.TimeEntryModel{}).
		Where("user_id = ? AND end_time IS NULL", userId).
		Count(&count).Error)
	return count
}
