package sspdiag

type Logger interface {
	Info(message string, module string)
	Warn(message string, module string)
	Error(message string, module string)
}

type noopLogger struct{}

func (noopLogger) Info(string, string)  {}
func (noopLogger) Warn(string, string)  {}
func (noopLogger) Error(string, string) {}

var logger Logger = noopLogger{}

func SetLogger(l Logger) {
	logger = l
}
