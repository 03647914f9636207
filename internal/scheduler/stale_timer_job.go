package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/blues/catalyst/internal/config"
	"github.com/blues/catalyst/internal/logger"
	"github.com/blues/catalyst/internal/logic"
	"github.com/blues/catalyst/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

const staleTimerWorkers = 4

// StaleTimerJob 标记运行时间过长的计时器。只打标记，不停止计时也不修改时长。
type StaleTimerJob struct {
	db       *gorm.DB
	activity *logic.ActivityLogic
	config   config.TimerConfig
	now      func() time.Time
}

// NewStaleTimerJob 创建超时计时器审计任务
func NewStaleTimerJob(db *gorm.DB, cfg config.TimerConfig) *StaleTimerJob {
	return &StaleTimerJob{
		db:       db,
		activity: logic.NewActivityLogic(db),
		config:   cfg,
		now:      time.Now,
	}
}

// GetName 获取任务名称
func (j *StaleTimerJob) GetName() string {
	return "stale_timer_auditor"
}

// GetSchedule 获取调度配置
func (j *StaleTimerJob) GetSchedule() gocron.JobDefinition {
	interval := j.config.AuditInterval
	if interval <= 0 {
		interval = 300
	}
	return gocron.DurationJob(time.Duration(interval) * time.Second)
}

// Execute 执行任务
func (j *StaleTimerJob) Execute() {
	flagged, err := j.Run()
	if err != nil {
		logger.Error("Stale timer audit failed: %v", err)
		return
	}
	logger.Info("Stale timer audit completed. Flagged %d entries", flagged)
}

// Run 扫描并标记超时的计时器，返回本次标记的数量
func (j *StaleTimerJob) Run() (int, error) {
	maxHours := j.config.MaxRunningHours
	if maxHours <= 0 {
		maxHours = 12
	}
	cutoff := j.now().Add(-time.Duration(maxHours) * time.Hour)

	var entries []model.TimeEntryModel
	if err := j.db.
		Where("end_time IS NULL AND flagged = ? AND start_time < ?", false, cutoff).
		Find(&entries).Error; err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(staleTimerWorkers)
	if err != nil {
		return 0, err
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		flagged atomic.Int64
	)
	for i := range entries {
		entry := entries[i]
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if j.flag(&entry) {
				flagged.Add(1)
			}
		}); err != nil {
			wg.Done()
			logger.Error("Failed to submit audit of time entry %d: %v", entry.Id, err)
		}
	}
	wg.Wait()

	return int(flagged.Load()), nil
}

// flag 标记单条计时记录并追加活动，已被标记或已停止的记录跳过
func (j *StaleTimerJob) flag(entry *model.TimeEntryModel) bool {
	elapsed := j.now().Sub(entry.StartTime)
	done := false

	err := j.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.TimeEntryModel{}).
			Where("id = ? AND end_time IS NULL AND flagged = ?", entry.Id, false).
			Updates(map[string]interface{}{
				"flagged":     true,
				"flag_reason": model.FlagReasonOverdue,
			})
		if result.Error != nil || result.RowsAffected == 0 {
			return result.Error
		}

		_, err := j.activity.RecordEvent(tx, entry.TaskId, entry.UserId, model.ActivityTimerFlagged, map[string]interface{}{
			"timeEntryId":    entry.Id,
			"reason":         model.FlagReasonOverdue,
			"elapsedSeconds": int64(elapsed / time.Second),
		})
		if err == nil {
			done = true
		}
		return err
	})
	if err != nil {
		logger.Error("Failed to flag time entry %d: %v", entry.Id, err)
		return false
	}
	if done {
		logger.Warn("Timer %d of user %d has been running for %s", entry.Id, entry.UserId, elapsed.Round(time.Minute))
	}
	return done
}
