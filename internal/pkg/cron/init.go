package cron

import log "log/slog"

// InitCron 注册并启动附件清理等定时任务
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		log.Error("failed to register cron jobs", "spec", mgr.orphanSpec, "err", err)
		return err
	}
	mgr.Start()
	return nil
}
