package cron

import (
	"Agora/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine     *cron.Cron
	orphanSpec string
	orphanJob  *job.OrphanCleanupJob
}

func NewCronManager(orphanSpec string, orphanJob *job.OrphanCleanupJob) *Manager {
	return &Manager{
		engine:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		orphanSpec: orphanSpec,
		orphanJob:  orphanJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.orphanSpec, s.orphanJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
