package ports

import "github.com/bnema/agent-council/internal/domain"

// Logger is the leveled key/value logger used by application services.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}

// TurnObserver is notified after each published turn.
type TurnObserver interface {
	TurnPublished(entry domain.Entry, cost domain.Money)
}
