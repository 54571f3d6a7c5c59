package logger

import (
	"context"
	log "log/slog"
	"strconv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

const (
	mongoSlowThreshold = 200 * time.Millisecond
	mongoCmdMaxLen     = 1000
)

// NewMongoMonitor 记录 MongoDB 命令，成功事件里补上集合名
func NewMongoMonitor() *event.CommandMonitor {
	var targets sync.Map

	return &event.CommandMonitor{
		Started: func(ctx context.Context, evt *event.CommandStartedEvent) {
			cmdStr := evt.Command.String()
			if len(cmdStr) > mongoCmdMaxLen {
				cmdStr = cmdStr[:mongoCmdMaxLen] + "...[truncated]"
			}
			collection, _ := evt.Command.Lookup(evt.CommandName).StringValueOK()
			targets.Store(evt.RequestID, collection)

			log.DebugContext(ctx, "MongoDB Started",
				log.String("command", evt.CommandName),
				log.String("database", evt.DatabaseName),
				log.String("collection", collection),
				log.String("cmd_detail", cmdStr),
			)
		},
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			collection, _ := targets.LoadAndDelete(evt.RequestID)
			fields := []any{
				log.String("command", evt.CommandName),
				log.Any("collection", collection),
				log.Duration("latency", evt.Duration),
				log.String("request_id", strconv.FormatInt(evt.RequestID, 10)),
			}

			if evt.Duration > mongoSlowThreshold {
				log.WarnContext(ctx, "MongoDB Slow", fields...)
			} else {
				log.InfoContext(ctx, "MongoDB Success", fields...)
			}
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			collection, _ := targets.LoadAndDelete(evt.RequestID)
			log.ErrorContext(ctx, "MongoDB Error",
				log.String("command", evt.CommandName),
				log.Any("collection", collection),
				log.Duration("latency", evt.Duration),
				log.String("request_id", strconv.FormatInt(evt.RequestID, 10)),
				log.Any("err", evt.Failure),
			)
		},
	}
}
