package fat

import (
	"context"
	"log/slog"
)

// slogLevelTrace sits below slog.LevelDebug, mirroring the teacher's custom
// trace level for the chattiest cache/cluster bookkeeping messages.
const slogLevelTrace = slog.LevelDebug - 2

func (ctx *Context) logattrs(level slog.Level, msg string, attrs ...slog.Attr) {
	if ctx.log != nil {
		ctx.log.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

func (ctx *Context) trace(msg string, attrs ...slog.Attr) {
	ctx.logattrs(slogLevelTrace, msg, attrs...)
}
func (ctx *Context) debug(msg string, attrs ...slog.Attr) {
	ctx.logattrs(slog.LevelDebug, msg, attrs...)
}
func (ctx *Context) info(msg string, attrs ...slog.Attr) {
	ctx.logattrs(slog.LevelInfo, msg, attrs...)
}
func (ctx *Context) warn(msg string, attrs ...slog.Attr) {
	ctx.logattrs(slog.LevelWarn, msg, attrs...)
}
func (ctx *Context) logerror(msg string, attrs ...slog.Attr) {
	ctx.logattrs(slog.LevelError, msg, attrs...)
}
