// Package logger wraps zap behind context-aware package-level helpers.
package logger

import (
	"context"

	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
	"go.uber.org/zap"
)

var global = zap.Must(zap.NewProduction()).Sugar()

// Init replaces the global logger. level is one of debug/info/warn/error;
// anything else falls back to info.
func Init(level string) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	global = zap.Must(cfg.Build(zap.AddCallerSkip(1))).Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = global.Sync()
}

func withCtx(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return global
	}
	if reqID, ok := ctx.Value(constants.CtxKeyRequestID).(string); ok && reqID != "" {
		return global.With("request_id", reqID)
	}
	return global
}

func Debugf(ctx context.Context, format string, args ...any) {
	withCtx(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...any) {
	withCtx(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	withCtx(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	withCtx(ctx).Errorf(format, args...)
}

func Error(ctx context.Context, msg string) {
	withCtx(ctx).Error(msg)
}

func Fatal(ctx context.Context, err error) {
	withCtx(ctx).Fatal(err)
}
