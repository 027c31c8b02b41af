package worker

import (
	"context"
	"errors"
	"time"

	"github.com/vanguard-next/internal/config"
	"github.com/vanguard-next/internal/logger"
	"github.com/vanguard-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultReleaseSweepInterval = time.Hour
	qualificationPollInterval   = time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
	jobs     config.JobsConfig
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, jobs config.JobsConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
		jobs:     jobs,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.CommissionService != nil {
		go s.runReleaseSweepLoop(ctx)
	}
	if s.consumer != nil && s.consumer.QualificationService != nil && s.jobs.QualificationCheckEnabled {
		go s.runQualificationLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runReleaseSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.CommissionService == nil {
		return
	}
	interval := defaultReleaseSweepInterval
	if s.jobs.ReleaseSweepIntervalMinutes > 0 {
		interval = time.Duration(s.jobs.ReleaseSweepIntervalMinutes) * time.Minute
	}
	runOnce := func() {
		if _, err := s.consumer.CommissionService.RunReleaseSweep(time.Now()); err != nil {
			logger.Warnw("worker_release_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// runQualificationLoop 每小时检查一次，仅在配置的月度日期首次到达时执行
func (s *Service) runQualificationLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.QualificationService == nil {
		return
	}
	targetDay := s.jobs.QualificationCheckDayOfMonth
	if targetDay < 1 || targetDay > 28 {
		targetDay = 1
	}

	var lastRun time.Time
	runIfDue := func(now time.Time) {
		if now.Day() != targetDay {
			return
		}
		if lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
			return
		}
		result, err := s.consumer.QualificationService.RunQualificationJob(now)
		if err != nil {
			logger.Warnw("worker_qualification_job_failed", "error", err)
			return
		}
		lastRun = now
		logger.Infow("worker_qualification_job_done",
			"evaluated", result.Evaluated,
			"qualified", result.Qualified,
			"suspended", result.Suspended,
			"cancelled", result.Cancelled,
			"volumes_reset", result.VolumesReset,
		)
	}
	runIfDue(time.Now())

	ticker := time.NewTicker(qualificationPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runIfDue(time.Now())
		}
	}
}
