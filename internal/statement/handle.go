package statement

import (
	"context"
	"database/sql"
	"io"
	"sync"

	"go.uber.org/multierr"
)

// Handle 一个物理语句，绑定在一个物理连接上
type Handle struct {
	sql    string
	args   []any
	target Target
	conn   *sql.Conn
	// stmt 只有 Prepared 的时候才有
	stmt *sql.Stmt

	mu     sync.Mutex
	rows   *sql.Rows
	result sql.Result
}

func newHandle(ctx context.Context, conn *sql.Conn, u Unit, opts Options) (*Handle, error) {
	h := &Handle{
		sql:    u.SQL,
		args:   u.Args,
		target: u.Target,
		conn:   conn,
	}
	if opts.Prepared {
		stmt, err := conn.PrepareContext(ctx, u.SQL)
		if err != nil {
			return nil, err
		}
		h.stmt = stmt
	}
	return h, nil
}

func (h *Handle) SQL() string {
	return h.sql
}

func (h *Handle) Args() []any {
	return h.args
}

func (h *Handle) Target() Target {
	return h.target
}

// Query 执行查询，记住结果集，后续可以通过 ResultSet 取回。
// 上一次的结果集会先被关闭，否则它会一直占着连接
func (h *Handle) Query(ctx context.Context) (*sql.Rows, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rows != nil {
		if err := h.rows.Close(); err != nil {
			return nil, err
		}
		h.rows = nil
	}
	var (
		rows *sql.Rows
		err  error
	)
	if h.stmt != nil {
		rows, err = h.stmt.QueryContext(ctx, h.args...)
	} else {
		rows, err = h.conn.QueryContext(ctx, h.sql, h.args...)
	}
	if err != nil {
		return nil, err
	}
	h.rows = rows
	return rows, nil
}

func (h *Handle) Exec(ctx context.Context) (sql.Result, error) {
	var (
		res sql.Result
		err error
	)
	if h.stmt != nil {
		res, err = h.stmt.ExecContext(ctx, h.args...)
	} else {
		res, err = h.conn.ExecContext(ctx, h.sql, h.args...)
	}
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	h.result = res
	h.mu.Unlock()
	return res, nil
}

// ResultSet 最近一次查询的结果集
func (h *Handle) ResultSet() *sql.Rows {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rows
}

// Result 最近一次更新的结果
func (h *Handle) Result() sql.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// discard 丢弃一次失败调用里已经拿到的结果，关闭它并且不再记住它
func (h *Handle) discard(res any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch r := res.(type) {
	case *sql.Rows:
		if r == nil {
			return
		}
		_ = r.Close()
		if h.rows == r {
			h.rows = nil
		}
	case sql.Result:
		h.result = nil
	default:
		if c, ok := res.(io.Closer); ok {
			_ = c.Close()
		}
	}
}

// Close 关闭结果集和预编译语句，连接交还给提供者处理
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var err error
	if h.rows != nil {
		err = multierr.Append(err, h.rows.Close())
		h.rows = nil
	}
	if h.stmt != nil {
		err = multierr.Append(err, h.stmt.Close())
		h.stmt = nil
	}
	return err
}
