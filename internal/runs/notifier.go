package runs

import "bridge/internal/logging"

// Notifier receives command failures after classification. Failures
// are reported here and swallowed; callers of the gateway only see a
// boolean outcome.
type Notifier interface {
	NotifyFailure(op string, failure Failure)
}

type logNotifier struct {
	logger logging.Logger
}

// NewLogNotifier reports failures to the log only.
func NewLogNotifier(logger logging.Logger) Notifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &logNotifier{logger: logger}
}

func (n *logNotifier) NotifyFailure(op string, failure Failure) {
	n.logger.Warn("run command failed",
		logging.F("op", op),
		logging.F("kind", failure.Kind),
		logging.F("message", failure.Message),
	)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(op string, failure Failure)

func (f NotifierFunc) NotifyFailure(op string, failure Failure) {
	if f == nil {
		return
	}
	f(op, failure)
}
