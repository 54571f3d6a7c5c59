package logger

import (
	"Agora/internal/api/config"
	"context"
	"io"
	log "log/slog"
	"net"
	"os"
	"time"
)

var LogWriter io.Writer = os.Stdout

// InitLogger 初始化全局日志，Logstash 可用时同时上报
func InitLogger() {
	cfg := config.Cfg.Logstash

	hStdout := log.NewJSONHandler(os.Stdout, &log.HandlerOptions{Level: log.LevelInfo})

	var finalHandler log.Handler = hStdout

	var conn net.Conn
	var err error
	if cfg.Address != "" {
		conn, err = net.DialTimeout("tcp", cfg.Address, 3*time.Second)
	}
	if conn != nil && err == nil {
		hRemote := log.NewJSONHandler(conn, &log.HandlerOptions{Level: log.LevelInfo}).
			WithAttrs([]log.Attr{
				log.String("target_index", cfg.Index),
				log.String("log_token", cfg.Token),
			})

		finalHandler = &TeeHandler{
			handlers: []log.Handler{hStdout, &RemoteFilterHandler{next: hRemote}},
		}

		LogWriter = io.MultiWriter(os.Stdout, conn)
	} else {
		LogWriter = os.Stdout
		log.Warn("Failed to connect to Logstash, logging to stdout only", "addr", cfg.Address, "err", err)
	}

	log.SetDefault(log.New(&ContextHandler{finalHandler}))
}

// WithTrace 为后台任务生成带 trace_id 的 context
func WithTrace(parent context.Context, traceID string) context.Context {
	return context.WithValue(parent, TraceIDKey, traceID)
}
