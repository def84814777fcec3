package ginject

import (
	"strings"

	"github.com/gookit/slog"
)

// containerLogger wraps the structured logger the container uses for its
// own lifecycle events (binding registration, sealing, singleton
// construction, disposal) — never for user-constructor output, which goes
// wherever the user's own code sends it. A nil containerLogger is valid and
// discards everything, so containers built without an explicit logger never
// pay for formatting work.
type containerLogger struct {
	base *slog.Logger

	// threshold gates which of the four levels below actually reach base;
	// zero means unset, in which case nothing is filtered. Kept here rather
	// than pushed onto base directly since gookit/slog's own level
	// filtering lives on handlers, not the Logger itself.
	threshold slog.Level
}

// newContainerLogger wraps l, or returns a discarding logger if l is nil.
func newContainerLogger(l *slog.Logger) *containerLogger {
	return &containerLogger{base: l}
}

// applyLevel sets c's minimum severity from name, using gookit/slog's own
// level vocabulary. A nil c or unset name is a no-op: LogLevel only has
// anything to act on once WithLogger has attached a real logger.
func (c *containerLogger) applyLevel(name string) {
	if c == nil || name == "" {
		return
	}
	c.threshold = levelByName(name)
}

func levelByName(name string) slog.Level {
	switch strings.ToLower(name) {
	case "panic":
		return slog.PanicLevel
	case "fatal":
		return slog.FatalLevel
	case "error", "err":
		return slog.ErrorLevel
	case "warn", "warning":
		return slog.WarnLevel
	case "notice":
		return slog.NoticeLevel
	case "debug":
		return slog.DebugLevel
	case "trace":
		return slog.TraceLevel
	default:
		return slog.InfoLevel
	}
}

// enabled reports whether a message at level should reach base: gookit/slog
// levels are more severe the lower their numeric value (PanicLevel is the
// smallest), so a message is enabled when it is at least as severe as the
// configured threshold.
func (c *containerLogger) enabled(level slog.Level) bool {
	return c.threshold == 0 || level <= c.threshold
}

func (c *containerLogger) Debugf(format string, args ...any) {
	if c == nil || c.base == nil || !c.enabled(slog.DebugLevel) {
		return
	}
	c.base.Debugf(format, args...)
}

func (c *containerLogger) Infof(format string, args ...any) {
	if c == nil || c.base == nil || !c.enabled(slog.InfoLevel) {
		return
	}
	c.base.Infof(format, args...)
}

func (c *containerLogger) Warnf(format string, args ...any) {
	if c == nil || c.base == nil || !c.enabled(slog.WarnLevel) {
		return
	}
	c.base.Warnf(format, args...)
}

func (c *containerLogger) Errorf(format string, args ...any) {
	if c == nil || c.base == nil || !c.enabled(slog.ErrorLevel) {
		return
	}
	c.base.Errorf(format, args...)
}
