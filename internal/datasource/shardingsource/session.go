package shardingsource

import (
	"context"
	"database/sql"
	"sync"

	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/statement"
	"go.uber.org/multierr"
)

var _ statement.ConnProvider = &Session{}

// Session 逻辑连接，持有为它申请的所有物理连接，关闭的时候统一归还连接池
type Session struct {
	ds *DataSource

	mu     sync.Mutex
	conns  []*sql.Conn
	closed bool
}

// Conn 每次都向连接池申请一个新的物理连接，保证同一个物理库上的多个结果集互不干扰
func (s *Session) Conn(ctx context.Context, target string) (*sql.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errs.ErrSessionClosed
	}
	c, err := s.ds.provider.Conn(ctx, target)
	if err != nil {
		return nil, err
	}
	s.conns = append(s.conns, c)
	return c, nil
}

func (s *Session) NewStatement(opts ...statement.Option) *Stmt {
	opts = append([]statement.Option{statement.WithExecutor(s.ds.executor)}, opts...)
	return &Stmt{
		ds:   s.ds,
		stmt: statement.New(s, opts...),
	}
}

// Close 归还所有的物理连接
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	for _, c := range s.conns {
		err = multierr.Append(err, c.Close())
	}
	s.conns = nil
	return err
}
