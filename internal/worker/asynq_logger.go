package worker

import (
	"fmt"

	"github.com/bazaar-next/internal/logger"

	"go.uber.org/zap"
)

// asynqLogger 将 asynq 内部日志桥接到 zap
type asynqLogger struct {
	base *zap.SugaredLogger
}

func newAsynqLogger() *asynqLogger {
	return &asynqLogger{base: logger.SW("component", "asynq")}
}

func (l *asynqLogger) Debug(args ...interface{}) { l.base.Debugw("asynq_debug", "detail", fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.base.Infow("asynq_info", "detail", fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.base.Warnw("asynq_warn", "detail", fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.base.Errorw("asynq_error", "detail", fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.base.Fatalw("asynq_fatal", "detail", fmt.Sprint(args...)) }
