package ctxlogger

// Logger reddl logger interface
type Logger interface {
	Debugf(format string, args ...interface{})
	Printf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type dummyLogger struct{}

// NewDummyLogger creates logger that do nothing
func NewDummyLogger() Logger {
	return dummyLogger{}
}

func (dummyLogger) Debugf(format string, args ...interface{}) {}
func (dummyLogger) Printf(format string, args ...interface{}) {}
func (dummyLogger) Warnf(format string, args ...interface{})  {}
func (dummyLogger) Errorf(format string, args ...interface{}) {}
