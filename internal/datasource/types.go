package datasource

import (
	"context"
	"database/sql"

	"github.com/meoying/shardrouter/internal/partition"
	"github.com/meoying/shardrouter/internal/sharding"
)

// Executor 执行一条逻辑语句，结果按照分区的注册顺序排列，由合并阶段负责合并
type Executor interface {
	Query(ctx context.Context, sc *sharding.Context) ([]*sql.Rows, error)
	Exec(ctx context.Context, sc *sharding.Context) ([]sql.Result, error)
}

type Stmt interface {
	Executor
	Close() error
}

// Rewriter 把逻辑 SQL 改写成某个分区上的物理 SQL，由上游的改写器实现
type Rewriter interface {
	Rewrite(ctx context.Context, sc *sharding.Context, partition string, target partition.Target) (string, []any, error)
}

// IdentityRewriter 不改写，逻辑 SQL 直接发给物理库
type IdentityRewriter struct{}

func (IdentityRewriter) Rewrite(_ context.Context, sc *sharding.Context, _ string, _ partition.Target) (string, []any, error) {
	return sc.SQL, sc.Args, nil
}

// RewriterFunc 函数形式的 Rewriter
type RewriterFunc func(ctx context.Context, sc *sharding.Context, partition string, target partition.Target) (string, []any, error)

func (f RewriterFunc) Rewrite(ctx context.Context, sc *sharding.Context, partition string, target partition.Target) (string, []any, error) {
	return f(ctx, sc, partition, target)
}
