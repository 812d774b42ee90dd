package core

// Logger is any leveled logging service.
// Extra args may carry errors or key/value context; implementations decide
// how to render them.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
