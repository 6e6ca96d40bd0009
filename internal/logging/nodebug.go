//go:build !debug
// +build !debug

package logging

import (
	"log"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// New returns a new logger with default options.
func New() *Logger {
	color.NoColor = true
	l, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Cannot create new logger:", err)
	}
	return &Logger{SugaredLogger: l.Sugar()}
}

// NewFile returns a new logger and also writes the log output to files.
func NewFile(files ...string) *Logger {
	color.NoColor = true
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = append(cfg.OutputPaths, files...)
	l, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot create new logger:", err)
	}
	return &Logger{SugaredLogger: l.Sugar()}
}
