package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hacktrack/internal/config"
	"hacktrack/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler 三个独立节奏的定时任务：竞赛拉取（粗）、全量排期（中）、邮件执行（细）。
// 同一任务上个tick未结束则跳过本tick（SkipIfStillRunning），不同任务可并发；
// 任务间无tick内依赖，正确性靠跨tick最终收敛
type Scheduler struct {
	c      *cron.Cron
	logger *logrus.Logger
}

// New 创建并注册全部定时任务（未Start）
func New(
	cfg *config.SchedulerConfig,
	ingest *service.IngestService,
	planner *service.PlannerService,
	dispatch *service.DispatchService,
	logger *logrus.Logger,
) (*Scheduler, error) {
	loc := loadLocation(cfg.Timezone, logger)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
	)

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{
			name: "contest-ingest",
			spec: cfg.IngestCron,
			run: func(ctx context.Context) error {
				_, err := ingest.Run(ctx)
				return err
			},
		},
		{
			name: "schedule-sweep",
			spec: cfg.SweepCron,
			run:  planner.PlanAll,
		},
		{
			name: "email-dispatch",
			spec: cfg.DispatchCron,
			run: func(ctx context.Context) error {
				return dispatch.Run(ctx, time.Now())
			},
		},
	}

	for _, job := range jobs {
		job := job
		if _, err := c.AddFunc(job.spec, func() {
			start := time.Now()
			logger.Debugf("定时任务%s开始", job.name)
			if err := job.run(context.Background()); err != nil {
				logger.WithError(err).Warnf("定时任务%s失败，等下一个tick重试", job.name)
				return
			}
			logger.Debugf("定时任务%s完成，耗时%s", job.name, time.Since(start))
		}); err != nil {
			return nil, fmt.Errorf("注册定时任务%s失败: %w", job.name, err)
		}
	}

	return &Scheduler{c: c, logger: logger}, nil
}

// Start 启动全部定时任务
func (s *Scheduler) Start() {
	s.c.Start()
	s.logger.Infof("定时调度已启动，共%d个任务", len(s.c.Entries()))
}

// Stop 停止调度并等待进行中的任务结束
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
	s.logger.Info("定时调度已停止")
}

// EntryCount 已注册任务数
func (s *Scheduler) EntryCount() int {
	return len(s.c.Entries())
}

// loadLocation 解析配置时区，非法时回退Local
func loadLocation(tz string, logger *logrus.Logger) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.WithError(err).WithField("tz", tz).Warn("时区非法，回退Local")
		return time.Local
	}
	return loc
}
