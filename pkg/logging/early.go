package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EarlyLog writes plain console lines to stderr before the configured
// logger exists.
type EarlyLog struct {
	sugar *zap.SugaredLogger
}

func NewEarlyLog() *EarlyLog {
	return newEarlyLog(zapcore.Lock(os.Stderr))
}

func newEarlyLog(out zapcore.WriteSyncer) *EarlyLog {
	encoderConfig := zapcore.EncoderConfig{
		LevelKey:    "level",
		MessageKey:  "msg",
		EncodeLevel: zapcore.CapitalLevelEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), out, zapcore.InfoLevel)
	return &EarlyLog{sugar: zap.New(core).Sugar()}
}

func (l *EarlyLog) Error(msg string, args ...interface{}) {
	l.sugar.Errorf(msg, args...)
}

// Fatal logs and exits the process.
func (l *EarlyLog) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalf(msg, args...)
}

func (l *EarlyLog) Warn(msg string, args ...interface{}) {
	l.sugar.Warnf(msg, args...)
}

func (l *EarlyLog) Info(msg string, args ...interface{}) {
	l.sugar.Infof(msg, args...)
}
