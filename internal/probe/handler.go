package probe

import (
	"fmt"

	"go.uber.org/zap"
)

// ErrorHandler receives transport failures together with a short description
// of where they happened. Implementations must not block for long; they run
// on the probing goroutine.
type ErrorHandler interface {
	HandleError(err error, message string)
}

// ErrorHandlerFunc adapts a plain function to ErrorHandler.
type ErrorHandlerFunc func(err error, message string)

func (f ErrorHandlerFunc) HandleError(err error, message string) { f(err, message) }

// LogErrorHandler writes failures to a zap logger at warn level.
type LogErrorHandler struct {
	Logger *zap.Logger
}

func NewLogErrorHandler(l *zap.Logger) *LogErrorHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &LogErrorHandler{Logger: l}
}

func (h *LogErrorHandler) HandleError(err error, message string) {
	h.Logger.Warn("probe_failed", zap.String("message", message), zap.Error(err))
}

// report forwards a failure to h. A panicking handler is logged and
// swallowed so the caller keeps going.
func report(l *zap.Logger, h ErrorHandler, err error, message string) {
	defer func() {
		if r := recover(); r != nil {
			l.Warn("probe_error_handler_panic",
				zap.String("message", message),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	h.HandleError(err, message)
}
