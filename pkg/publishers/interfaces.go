// Package publishers delivers content events to downstream sinks.
package publishers

import "context"

// Publisher delivers events to one sink. Fanout calls Publish from several goroutines at
// once (one per sink), and a sink holding connections may also implement io.Closer.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Logger is the slice of the service logger the sinks report delivery outcomes to.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type discardLogger struct{}

func (discardLogger) DebugObj(string, string, interface{}) {}
func (discardLogger) ErrorObj(string, string, interface{}) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return discardLogger{}
	}
	return log
}
