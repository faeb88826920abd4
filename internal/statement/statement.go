package statement

import (
	"context"
	"database/sql"
	"sync"

	"github.com/meoying/shardrouter/internal/errs"
	"go.uber.org/multierr"
)

type Options struct {
	// Prepared 创建物理语句的时候顺便预编译
	Prepared bool
}

type Option func(s *Statement)

func WithPrepared() Option {
	return func(s *Statement) {
		s.opts.Prepared = true
	}
}

func WithExecutor(e *Executor) Option {
	return func(s *Statement) {
		s.executor = e
	}
}

// Statement 一条逻辑语句，缓存它在各个物理库上的物理语句。
// 同一个 (SQL, 物理库) 只会创建一个物理语句，缓存按照第一次出现的顺序保存
type Statement struct {
	provider ConnProvider
	opts     Options
	executor *Executor

	mu     sync.RWMutex
	cache  map[uint64][]*Handle
	routed []*Handle
	closed bool
}

func New(provider ConnProvider, opts ...Option) *Statement {
	s := &Statement{
		provider: provider,
		cache:    make(map[uint64][]*Handle, 8),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.executor == nil {
		s.executor = NewExecutor(Parallel)
	}
	return s
}

// Handles 为每个路由单元找到物理语句，缓存里面没有就创建。
// 返回去重之后的物理语句，顺序和 units 中第一次出现的顺序一致
func (s *Statement) Handles(ctx context.Context, units []Unit) ([]*Handle, error) {
	res := make([]*Handle, 0, len(units))
	seen := make(map[*Handle]struct{}, len(units))
	for _, u := range units {
		h, err := s.findOrCreate(ctx, u)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		res = append(res, h)
	}
	return res, nil
}

func (s *Statement) findOrCreate(ctx context.Context, u Unit) (*Handle, error) {
	key := keyOf(u.SQL, u.Target.Name)
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, errs.ErrStatementClosed
	}
	h := s.lookup(key, u)
	s.mu.RUnlock()
	if h != nil {
		return h, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errs.ErrStatementClosed
	}
	// double check
	if h = s.lookup(key, u); h != nil {
		return h, nil
	}
	conn, err := s.provider.Conn(ctx, u.Target.Name)
	if err != nil {
		return nil, errs.NewExecutionError(u.Target.Partition, u.Target.Name, u.SQL, err)
	}
	h, err = newHandle(ctx, conn, u, s.opts)
	if err != nil {
		return nil, errs.NewExecutionError(u.Target.Partition, u.Target.Name, u.SQL, err)
	}
	s.cache[key] = append(s.cache[key], h)
	s.routed = append(s.routed, h)
	return h, nil
}

func (s *Statement) lookup(key uint64, u Unit) *Handle {
	for _, h := range s.cache[key] {
		if h.sql == u.SQL && h.target.Name == u.Target.Name {
			return h
		}
	}
	return nil
}

// Routed 当前缓存的所有物理语句，按照创建顺序
func (s *Statement) Routed() []*Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Handle, len(s.routed))
	copy(res, s.routed)
	return res
}

// ResultSets 每个物理语句最近一次查询的结果集，没有查询过的跳过
func (s *Statement) ResultSets() []*sql.Rows {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*sql.Rows, 0, len(s.routed))
	for _, h := range s.routed {
		if rows := h.ResultSet(); rows != nil {
			res = append(res, rows)
		}
	}
	return res
}

// ClearRouted 清空缓存。只是忘掉这些物理语句，连接的释放交给连接的提供者
func (s *Statement) ClearRouted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[uint64][]*Handle, 8)
	s.routed = nil
}

// Close 关闭所有物理语句，之后不能再使用
func (s *Statement) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	for _, h := range s.routed {
		err = multierr.Append(err, h.Close())
	}
	s.cache = nil
	s.routed = nil
	return err
}

// Execute 找到物理语句之后用 cb 执行
func Execute[T any](ctx context.Context, s *Statement, units []Unit, cb Callback[T]) ([]T, error) {
	handles, err := s.Handles(ctx, units)
	if err != nil {
		return nil, err
	}
	return Run(ctx, s.executor, handles, cb)
}

func (s *Statement) Query(ctx context.Context, units []Unit) ([]*sql.Rows, error) {
	return Execute(ctx, s, units, func(ctx context.Context, h *Handle) (*sql.Rows, error) {
		return h.Query(ctx)
	})
}

func (s *Statement) Exec(ctx context.Context, units []Unit) ([]sql.Result, error) {
	return Execute(ctx, s, units, func(ctx context.Context, h *Handle) (sql.Result, error) {
		return h.Exec(ctx)
	})
}
