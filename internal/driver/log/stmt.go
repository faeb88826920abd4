package log

import (
	"context"
	"database/sql/driver"
	"errors"
)

var errNamedValue = errors.New("log: 驱动不支持命名参数")

type stmtWrapper struct {
	stmt   driver.Stmt
	query  string
	logger logger
}

func (s *stmtWrapper) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	var (
		res driver.Result
		err error
	)
	if ec, ok := s.stmt.(driver.StmtExecContext); ok {
		res, err = ec.ExecContext(ctx, args)
	} else {
		var vals []driver.Value
		vals, err = valuesOf(args)
		if err == nil {
			//nolint:staticcheck
			res, err = s.stmt.Exec(vals)
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "执行预编译语句失败", "sql", s.query, "参数", args, "错误", err)
		return nil, err
	}
	s.logger.DebugContext(ctx, "执行预编译语句", "sql", s.query, "参数", args)
	return &resultWrapper{result: res, logger: s.logger}, nil
}

func (s *stmtWrapper) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	var (
		rows driver.Rows
		err  error
	)
	if qc, ok := s.stmt.(driver.StmtQueryContext); ok {
		rows, err = qc.QueryContext(ctx, args)
	} else {
		var vals []driver.Value
		vals, err = valuesOf(args)
		if err == nil {
			//nolint:staticcheck
			rows, err = s.stmt.Query(vals)
		}
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "查询预编译语句失败", "sql", s.query, "参数", args, "错误", err)
		return nil, err
	}
	s.logger.DebugContext(ctx, "查询预编译语句", "sql", s.query, "参数", args)
	return &rowsWrapper{rows: rows, logger: s.logger}, nil
}

func (s *stmtWrapper) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), namedValuesOf(args))
}

func (s *stmtWrapper) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), namedValuesOf(args))
}

func (s *stmtWrapper) CheckNamedValue(value *driver.NamedValue) error {
	if nc, ok := s.stmt.(driver.NamedValueChecker); ok {
		return nc.CheckNamedValue(value)
	}
	return driver.ErrSkip
}

func (s *stmtWrapper) NumInput() int {
	return s.stmt.NumInput()
}

func (s *stmtWrapper) Close() error {
	err := s.stmt.Close()
	if err != nil {
		s.logger.Error("关闭预编译语句失败", "sql", s.query, "错误", err)
		return err
	}
	return nil
}

func valuesOf(args []driver.NamedValue) ([]driver.Value, error) {
	res := make([]driver.Value, len(args))
	for i, arg := range args {
		if arg.Name != "" {
			return nil, errNamedValue
		}
		res[i] = arg.Value
	}
	return res, nil
}

func namedValuesOf(args []driver.Value) []driver.NamedValue {
	res := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		res[i] = driver.NamedValue{Ordinal: i + 1, Value: arg}
	}
	return res
}
