package log

import (
	"context"
	"database/sql"
	"database/sql/driver"
)

var (
	_ driver.Conn               = &connWrapper{}
	_ driver.ConnPrepareContext = &connWrapper{}
	_ driver.QueryerContext     = &connWrapper{}
	_ driver.ExecerContext      = &connWrapper{}
	_ driver.ConnBeginTx        = &connWrapper{}
	_ driver.Pinger             = &connWrapper{}
	_ driver.SessionResetter    = &connWrapper{}
	_ driver.Validator          = &connWrapper{}
	_ driver.NamedValueChecker  = &connWrapper{}
)

type connWrapper struct {
	conn   driver.Conn
	logger logger
}

func (c *connWrapper) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *connWrapper) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var (
		stmt driver.Stmt
		err  error
	)
	if pc, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err = pc.PrepareContext(ctx, query)
	} else {
		stmt, err = c.conn.Prepare(query)
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "预编译失败", "sql", query, "错误", err)
		return nil, err
	}
	c.logger.DebugContext(ctx, "预编译成功", "sql", query)
	return &stmtWrapper{stmt: stmt, query: query, logger: c.logger}, nil
}

// QueryContext 底层连接不支持的时候返回 driver.ErrSkip，database/sql 会改用预编译
func (c *connWrapper) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	qc, ok := c.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	rows, err := qc.QueryContext(ctx, query, args)
	if err != nil {
		if err != driver.ErrSkip {
			c.logger.ErrorContext(ctx, "查询失败", "sql", query, "参数", args, "错误", err)
		}
		return nil, err
	}
	c.logger.DebugContext(ctx, "查询", "sql", query, "参数", args)
	return &rowsWrapper{rows: rows, logger: c.logger}, nil
}

func (c *connWrapper) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	ec, ok := c.conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	res, err := ec.ExecContext(ctx, query, args)
	if err != nil {
		if err != driver.ErrSkip {
			c.logger.ErrorContext(ctx, "执行失败", "sql", query, "参数", args, "错误", err)
		}
		return nil, err
	}
	c.logger.DebugContext(ctx, "执行", "sql", query, "参数", args)
	return &resultWrapper{result: res, logger: c.logger}, nil
}

func (c *connWrapper) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *connWrapper) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	var (
		tx  driver.Tx
		err error
	)
	if bc, ok := c.conn.(driver.ConnBeginTx); ok {
		tx, err = bc.BeginTx(ctx, opts)
	} else {
		//nolint:staticcheck
		tx, err = c.conn.Begin()
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "开启事务失败", "错误", err)
		return nil, err
	}
	c.logger.DebugContext(ctx, "开启事务成功", "隔离级别", sql.IsolationLevel(opts.Isolation).String())
	return newTxWrapper(tx, c.logger, opts), nil
}

func (c *connWrapper) Ping(ctx context.Context) error {
	p, ok := c.conn.(driver.Pinger)
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		c.logger.ErrorContext(ctx, "ping 失败", "错误", err)
		return err
	}
	return nil
}

func (c *connWrapper) ResetSession(ctx context.Context) error {
	if r, ok := c.conn.(driver.SessionResetter); ok {
		return r.ResetSession(ctx)
	}
	return nil
}

func (c *connWrapper) IsValid() bool {
	if v, ok := c.conn.(driver.Validator); ok {
		return v.IsValid()
	}
	return true
}

func (c *connWrapper) CheckNamedValue(value *driver.NamedValue) error {
	if nc, ok := c.conn.(driver.NamedValueChecker); ok {
		return nc.CheckNamedValue(value)
	}
	return driver.ErrSkip
}

func (c *connWrapper) Close() error {
	err := c.conn.Close()
	if err != nil {
		c.logger.Error("关闭连接失败", "错误", err)
		return err
	}
	c.logger.Info("关闭连接成功")
	return nil
}
