// Package logging provides the module-tagged zap logger shared by the passes
// and the frontend.
package logging

import (
	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Logger encapsulates a Logger and module which it belongs to.
// Use this through SetLogger() of components.
type Logger struct {
	*zap.SugaredLogger
	module string
}

// LogSetter is implemented by components that accept a Logger.
type LogSetter interface {
	SetLogger(*Logger)
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Module returns (stylised) module name.
func (l *Logger) Module() string {
	return l.module
}

// Tagged returns a copy of l for module, with the name printed in attr.
func (l *Logger) Tagged(module string, attr color.Attribute) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger,
		module:        color.New(attr).Sprint(module),
	}
}

// OrNop returns l, or a no-op Logger if l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}
