package core

// Logger is implemented by the logging services.
// args may hold errors, a map[string]interface{} of extras and at most one Actor.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies who triggered a logged event (the authenticated admin).
type Actor struct {
	ID       string
	Username string
}
