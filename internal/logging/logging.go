// Package logging provides the process-wide structured logger.
//
// The teacher pipeline used a private shared module (tv-shared-go/logger)
// for this; that module is not a fetchable dependency from this repo, so
// the same call shape (Info/Error/Warn/Debug/Fatal plus zap.Field helpers)
// is reproduced here as a small local wrapper around zap.
package logging

import (
	"os"
	"sync"

	"cloud.google.com/go/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log *zap.Logger = zap.NewNop()
)

// Options configures the process-wide logger.
type Options struct {
	// GCPProjectID, when non-empty, adds a Cloud Logging core alongside
	// the console core so production deployments get both a local trail
	// and a centrally queryable one.
	GCPProjectID string
	LogName      string
	Development  bool
}

// Init installs the process-wide logger. Safe to call once at startup;
// subsequent calls replace the global logger (used by tests).
func Init(opts Options) error {
	consoleCfg := zap.NewProductionEncoderConfig()
	consoleCfg.TimeKey = "ts"
	consoleCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.Development {
		consoleCfg = zap.NewDevelopmentEncoderConfig()
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(consoleCfg), zapcore.Lock(os.Stdout), zapcore.InfoLevel),
	}

	if opts.GCPProjectID != "" {
		client, err := logging.NewClient(newBackgroundContext(), opts.GCPProjectID)
		if err != nil {
			return err
		}
		name := opts.LogName
		if name == "" {
			name = "epcis-document-converter"
		}
		logger := client.Logger(name)
		cores = append(cores, newCloudLoggingCore(logger, zapcore.InfoLevel))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller())

	mu.Lock()
	log = l
	mu.Unlock()
	return nil
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Info(msg string, fields ...zap.Field)  { current().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { current().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { current().Error(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { current().Debug(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { current().Fatal(msg, fields...) }

// Sync flushes buffered log entries; call before process exit.
func Sync() error {
	return current().Sync()
}
