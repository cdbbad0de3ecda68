package logger

import (
	"fmt"
	"io"

	echolog "github.com/labstack/gommon/log"
)

// EchoLoggerAdapter routes Echo's internal logging (recovered panics, server
// start errors) into a module Logger.
//
//	e := echo.New()
//	e.Logger = logger.NewEchoLoggerAdapter(log.Module("echo"))
type EchoLoggerAdapter struct {
	log Logger
}

// NewEchoLoggerAdapter wraps log. A nil log discards everything.
func NewEchoLoggerAdapter(log Logger) *EchoLoggerAdapter {
	if log == nil {
		log = NewSlogLogger(nil, LogLevelInfo, nil)
	}
	return &EchoLoggerAdapter{log: log}
}

// Output is io.Discard; the wrapped Logger owns the destination.
func (a *EchoLoggerAdapter) Output() io.Writer { return io.Discard }

// SetOutput is ignored.
func (a *EchoLoggerAdapter) SetOutput(io.Writer) {}

// Prefix is always empty; the module name scopes records instead.
func (a *EchoLoggerAdapter) Prefix() string { return "" }

// SetPrefix is ignored.
func (a *EchoLoggerAdapter) SetPrefix(string) {}

// Level reports DEBUG so Echo never filters before the wrapped Logger does.
func (a *EchoLoggerAdapter) Level() echolog.Lvl { return echolog.DEBUG }

// SetLevel is ignored; levels come from the logging configuration.
func (a *EchoLoggerAdapter) SetLevel(echolog.Lvl) {}

// SetHeader is ignored.
func (a *EchoLoggerAdapter) SetHeader(string) {}

func (a *EchoLoggerAdapter) Print(i ...any) { a.log.Info(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Printf(format string, args ...any) { a.log.Info(fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Printj(j echolog.JSON) { a.log.Info("echo", Any("data", j)) }

func (a *EchoLoggerAdapter) Debug(i ...any) { a.log.Debug(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Debugf(format string, args ...any) { a.log.Debug(fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Debugj(j echolog.JSON) { a.log.Debug("echo", Any("data", j)) }

func (a *EchoLoggerAdapter) Info(i ...any) { a.log.Info(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Infof(format string, args ...any) { a.log.Info(fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Infoj(j echolog.JSON) { a.log.Info("echo", Any("data", j)) }

func (a *EchoLoggerAdapter) Warn(i ...any) { a.log.Warn(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Warnf(format string, args ...any) { a.log.Warn(fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Warnj(j echolog.JSON) { a.log.Warn("echo", Any("data", j)) }

func (a *EchoLoggerAdapter) Error(i ...any) { a.log.Error(fmt.Sprint(i...)) }
func (a *EchoLoggerAdapter) Errorf(format string, args ...any) { a.log.Error(fmt.Sprintf(format, args...)) }
func (a *EchoLoggerAdapter) Errorj(j echolog.JSON) { a.log.Error("echo", Any("data", j)) }

// Fatal logs at error level and panics instead of exiting the process.
func (a *EchoLoggerAdapter) Fatal(i ...any) { a.fail(fmt.Sprint(i...)) }

// Fatalf is the formatted form of Fatal.
func (a *EchoLoggerAdapter) Fatalf(format string, args ...any) { a.fail(fmt.Sprintf(format, args...)) }

// Fatalj is the JSON form of Fatal.
func (a *EchoLoggerAdapter) Fatalj(j echolog.JSON) { a.fail(fmt.Sprintf("%v", j)) }

// Panic logs at error level and panics with the message.
func (a *EchoLoggerAdapter) Panic(i ...any) { a.fail(fmt.Sprint(i...)) }

// Panicf is the formatted form of Panic.
func (a *EchoLoggerAdapter) Panicf(format string, args ...any) { a.fail(fmt.Sprintf(format, args...)) }

// Panicj is the JSON form of Panic.
func (a *EchoLoggerAdapter) Panicj(j echolog.JSON) { a.fail(fmt.Sprintf("%v", j)) }

func (a *EchoLoggerAdapter) fail(msg string) {
	a.log.Error(msg)
	panic("echo: " + msg)
}
