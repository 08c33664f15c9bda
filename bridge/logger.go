package bridge

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/mlbridge/errors"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the bridge's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the bridge's logger.
// This must be called before any scope is opened.
func SetLogger(l *zap.Logger) {
	logger = l
}

func fail(err *errors.Error) {
	Logger().Error("bridge contract violation",
		zap.String("phase", string(err.Phase)),
		zap.String("kind", string(err.Kind)),
		zap.Error(err))
	errors.Fatal(err)
}
