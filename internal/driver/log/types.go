package log

import (
	"context"
	"database/sql/driver"
	"log/slog"
)

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	DebugContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

type ConnectorOptions struct {
	l *slog.Logger
}

type Option func(*ConnectorOptions)

func WithLogger(l *slog.Logger) Option {
	return func(opts *ConnectorOptions) {
		opts.l = l
	}
}

// NewConnector 包装驱动，所有的连接，语句，事务操作都会输出日志
func NewConnector(d driver.Driver, dsn string, opts ...Option) (driver.Connector, error) {
	options := &ConnectorOptions{
		l: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	return newDriver(d, options.l).OpenConnector(dsn)
}
