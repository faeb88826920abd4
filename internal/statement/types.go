package statement

import (
	"context"
	"database/sql"

	"github.com/meoying/shardrouter/internal/partition"
)

// Target 一次物理执行的目标
type Target struct {
	Partition string
	// Name 物理库名字，连接池按照它申请连接
	Name string
	Role partition.Role
}

// Unit 路由结果中的一项，改写之后的 SQL 和它的执行目标
type Unit struct {
	SQL    string
	Args   []any
	Target Target
}

// ConnProvider 为物理库提供连接，连接的生命周期由提供者负责，
// Statement 从来不会关闭拿到的连接
type ConnProvider interface {
	Conn(ctx context.Context, target string) (*sql.Conn, error)
}

// Callback 在一个物理语句上执行，执行方式由调用方决定（查询，更新或者其它）
type Callback[T any] func(ctx context.Context, h *Handle) (T, error)
