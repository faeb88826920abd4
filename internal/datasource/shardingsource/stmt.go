package shardingsource

import (
	"context"
	"database/sql"

	"github.com/meoying/shardrouter/internal/datasource"
	"github.com/meoying/shardrouter/internal/sharding"
	"github.com/meoying/shardrouter/internal/statement"
)

var _ datasource.Stmt = &Stmt{}

// Stmt 一条逻辑语句，同一条逻辑语句多次执行会复用物理语句
type Stmt struct {
	ds   *DataSource
	stmt *statement.Statement
}

func (s *Stmt) Query(ctx context.Context, sc *sharding.Context) ([]*sql.Rows, error) {
	units, err := s.ds.Units(ctx, sc)
	if err != nil {
		return nil, err
	}
	return s.stmt.Query(ctx, units)
}

func (s *Stmt) Exec(ctx context.Context, sc *sharding.Context) ([]sql.Result, error) {
	units, err := s.ds.Units(ctx, sc)
	if err != nil {
		return nil, err
	}
	return s.stmt.Exec(ctx, units)
}

// ResultSets 执行之后取回每个物理语句的结果集
func (s *Stmt) ResultSets() []*sql.Rows {
	return s.stmt.ResultSets()
}

func (s *Stmt) Routed() []*statement.Handle {
	return s.stmt.Routed()
}

func (s *Stmt) ClearRouted() {
	s.stmt.ClearRouted()
}

func (s *Stmt) Close() error {
	return s.stmt.Close()
}
