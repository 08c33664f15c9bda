package layout

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/mlbridge/errors"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the layout package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the layout package's logger.
// This must be called before any heap access.
func SetLogger(l *zap.Logger) {
	logger = l
}

func fail(err *errors.Error) {
	Logger().Error("heap layout violation", zap.Error(err))
	errors.Fatal(err)
}
