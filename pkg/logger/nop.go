package logger

import "context"

// nopLogger discards every record; its Fatal does not exit.
type nopLogger struct{}

// Nop returns a Logger that drops all records. Domain packages use it as
// their default so they work without a global Init.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Info(context.Context, string, ...Field)  {}
func (nopLogger) Error(context.Context, string, ...Field) {}
func (nopLogger) Debug(context.Context, string, ...Field) {}
func (nopLogger) Warn(context.Context, string, ...Field)  {}
func (nopLogger) Fatal(context.Context, string, ...Field) {}
func (n nopLogger) Named(string) Logger                    { return n }
