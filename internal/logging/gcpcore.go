package logging

import (
	"context"

	gcplogging "cloud.google.com/go/logging"
	"go.uber.org/zap/zapcore"
)

func newBackgroundContext() context.Context {
	return context.Background()
}

// cloudLoggingCore adapts a Cloud Logging *logging.Logger into a zapcore.Core
// so Init can tee entries to both stdout and GCP without the rest of the
// codebase knowing the difference.
type cloudLoggingCore struct {
	logger *gcplogging.Logger
	level  zapcore.LevelEnabler
	fields []zapcore.Field
}

func newCloudLoggingCore(l *gcplogging.Logger, level zapcore.LevelEnabler) zapcore.Core {
	return &cloudLoggingCore{logger: l, level: level}
}

func (c *cloudLoggingCore) Enabled(level zapcore.Level) bool { return c.level.Enabled(level) }

func (c *cloudLoggingCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field{}, c.fields...), fields...)
	return &clone
}

func (c *cloudLoggingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *cloudLoggingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range append(append([]zapcore.Field{}, c.fields...), fields...) {
		f.AddTo(enc)
	}
	enc.Fields["message"] = ent.Message
	enc.Fields["logger"] = ent.LoggerName

	c.logger.Log(gcplogging.Entry{
		Timestamp: ent.Time,
		Severity:  severityFor(ent.Level),
		Payload:   enc.Fields,
	})
	return nil
}

func (c *cloudLoggingCore) Sync() error {
	return c.logger.Flush()
}

func severityFor(level zapcore.Level) gcplogging.Severity {
	switch level {
	case zapcore.DebugLevel:
		return gcplogging.Debug
	case zapcore.InfoLevel:
		return gcplogging.Info
	case zapcore.WarnLevel:
		return gcplogging.Warning
	case zapcore.ErrorLevel:
		return gcplogging.Error
	case zapcore.DPanicLevel, zapcore.PanicLevel:
		return gcplogging.Critical
	case zapcore.FatalLevel:
		return gcplogging.Emergency
	default:
		return gcplogging.Default
	}
}
