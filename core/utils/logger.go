package utils

import (
	"log"
	"os"
)

type Logger struct {
	info *log.Logger
	warn *log.Logger
	err  *log.Logger
}

func NewLogger() *Logger {
	flags := log.LstdFlags | log.Lmsgprefix
	return &Logger{
		info: log.New(os.Stdout, "INFO  ", flags),
		warn: log.New(os.Stdout, "WARN  ", flags),
		err:  log.New(os.Stderr, "ERROR ", flags),
	}
}

func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.info == nil {
		return
	}
	l.info.Printf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	if l == nil || l.warn == nil {
		return
	}
	l.warn.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.err == nil {
		return
	}
	l.err.Printf(format, args...)
}
