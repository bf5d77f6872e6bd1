package log

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
)

type Logger interface {
	Prefix(prefix string) Logger

	Ok(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Fatal(format string, args ...interface{})
}

type defaultLogger struct {
	prefix string
}

func NewDefaultLogger() Logger {
	return &defaultLogger{}
}

func (l *defaultLogger) Prefix(prefix string) Logger {
	return &defaultLogger{
		prefix: prefix,
	}
}

func (l *defaultLogger) Ok(format string, args ...interface{}) {
	l.printMsg(color.New(color.FgGreen), "  OK  ", format, args...)
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	l.printMsg(color.New(color.FgCyan), " INFO ", format, args...)
}

func (l *defaultLogger) Warn(format string, args ...interface{}) {
	l.printMsg(color.New(color.FgYellow), " WARN ", format, args...)
}

func (l *defaultLogger) Fatal(format string, args ...interface{}) {
	l.printMsg(color.New(color.FgRed), "FATAL ", format, args...)
	os.Exit(1)
}

func (l *defaultLogger) printMsg(lvlColor *color.Color, lvl, format string, args ...interface{}) {
	fmt.Printf("%s [%s] %s: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		lvlColor.Sprint(lvl),
		l.prefix,
		fmt.Sprintf(format, args...),
	)
}
