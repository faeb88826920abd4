package sharding

import (
	"context"

	"github.com/meoying/shardrouter/internal/sharding/operator"
)

// StatementType 逻辑语句的类型，决定路由失败时的兜底策略
type StatementType uint8

const (
	Other StatementType = iota
	Select
	Insert
	Update
	Delete
	DDL
)

func (s StatementType) String() string {
	switch s {
	case Select:
		return "select"
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case DDL:
		return "ddl"
	default:
		return "other"
	}
}

// IsRead 只有 SELECT 会经过读写分离
func (s StatementType) IsRead() bool {
	return s == Select
}

// LogicTable 逻辑表，配置加载之后不可变
type LogicTable struct {
	Name string
	// LayerKey 依赖关系，"order.item" 以 "order" 为前缀，说明它跟随 order 的分片结果
	LayerKey string
	// Sharding 为 nil 说明没有分库规则
	Sharding *Config
	// GlobalPartitions 全局表，所有的副本所在的分区
	GlobalPartitions []string
}

func (t LogicTable) IsGlobal() bool {
	return len(t.GlobalPartitions) > 0
}

// Config 一张逻辑表的分库规则
type Config struct {
	Columns   []string
	Algorithm Algorithm
}

// Value 从语句中绑定出来的一个分片值，只在一次执行中存在
type Value struct {
	Column string
	Op     operator.Op
	// Val 单值操作符使用
	Val any
	// Vals IN 使用
	Vals []any
	// Low, High BETWEEN 使用
	Low  any
	High any
}

// Context 一次逻辑语句执行的上下文，由上游的解析器产生
type Context struct {
	SQL  string
	Args []any
	Type StatementType
	// Tables 按照语句中声明的顺序排列
	Tables []LogicTable
	// Bindings 解析器抽取出来的分片值，按照 表 -> 列 组织
	Bindings map[string]map[string][]Value
}

// Resolver 为某张逻辑表的分片列找到语句中绑定的值。
// 返回的每个元素对应一组绑定（比如 OR 的一个分支），语句没有约束这些列时返回空
//
//go:generate mockgen -source=./types.go -destination=mocks/sharding.mock.go -package=mocks -typed=false
type Resolver interface {
	Resolve(ctx context.Context, sc *Context, table string, columns []string) ([][]Value, error)
}

// Algorithm 可插拔的分库算法，names 是所有注册的分区，返回候选分区
type Algorithm interface {
	Shard(ctx context.Context, sc *Context, names []string, values [][]Value) ([]string, error)
}

// AlgorithmFunc 函数形式的 Algorithm
type AlgorithmFunc func(ctx context.Context, sc *Context, names []string, values [][]Value) ([]string, error)

func (f AlgorithmFunc) Shard(ctx context.Context, sc *Context, names []string, values [][]Value) ([]string, error) {
	return f(ctx, sc, names, values)
}
