package reward

import (
	"context"
	"time"

	taskname "savepaws-backend/pkg/asynq"
	"savepaws-backend/pkg/config"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var TaskModule = fx.Module("task.reward",
	fx.Provide(NewTask),
	fx.Invoke(
		registerTaskHandlers,
		scheduleExpirySweep,
	),
)

type Task struct {
	db    *gorm.DB
	asynq *asynq.Client
}

type TaskParams struct {
	fx.In

	DB    *gorm.DB
	Asynq *asynq.Client
}

func NewTask(p TaskParams) *Task {
	return &Task{
		db:    p.DB,
		asynq: p.Asynq,
	}
}

// HandleExpirePointsTask flips redemption records past their voucher expiry
// to Expired. Balances already ignore expired earn entries at read time, so
// the sweep only exists to keep redemption history honest.
func (s *Task) HandleExpirePointsTask(ctx context.Context, t *asynq.Task) error {
	zapLog := zap.L().With(zap.String("task_type", t.Type()))

	result := s.db.WithContext(ctx).Model(&Redemption{}).
		Where("status = ? AND expiry_date <= ?", RedemptionActive, time.Now()).
		Update("status", RedemptionExpired)
	if result.Error != nil {
		zapLog.Error("failed to expire redemptions", zap.Error(result.Error))
		return result.Error
	}

	if result.RowsAffected > 0 {
		zapLog.Info("expired redemptions", zap.Int64("count", result.RowsAffected))
	}
	return nil
}

func registerTaskHandlers(mux *asynq.ServeMux, task *Task) {
	mux.HandleFunc(taskname.ExpirePointsTask, task.HandleExpirePointsTask)
}

func scheduleExpirySweep(lc fx.Lifecycle, cfg *config.Config, task *Task) {
	interval := cfg.Rewards.ExpirySweepInterval
	if interval <= 0 {
		interval = time.Hour
	}

	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if _, err := task.asynq.Enqueue(asynq.NewTask(taskname.ExpirePointsTask, nil), asynq.Queue("low")); err != nil {
							zap.L().Warn("failed to enqueue expiry sweep", zap.Error(err))
						}
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
}
