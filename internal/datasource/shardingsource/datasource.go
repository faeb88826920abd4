package shardingsource

import (
	"context"
	"log/slog"

	"github.com/meoying/shardrouter/internal/datasource"
	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/partition"
	"github.com/meoying/shardrouter/internal/readsplit"
	"github.com/meoying/shardrouter/internal/router"
	"github.com/meoying/shardrouter/internal/sharding"
	"github.com/meoying/shardrouter/internal/statement"
)

// DataSource 逻辑数据源：路由，读写分离，改写，然后在物理库上执行
type DataSource struct {
	registry   *partition.Registry
	router     *router.Router
	strategies *readsplit.Repository
	provider   statement.ConnProvider
	rewriter   datasource.Rewriter
	executor   *statement.Executor
	logger     *slog.Logger
}

type Option func(ds *DataSource)

func WithRewriter(r datasource.Rewriter) Option {
	return func(ds *DataSource) {
		ds.rewriter = r
	}
}

func WithExecutor(e *statement.Executor) Option {
	return func(ds *DataSource) {
		ds.executor = e
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(ds *DataSource) {
		ds.logger = l
	}
}

func New(registry *partition.Registry, r *router.Router, strategies *readsplit.Repository,
	provider statement.ConnProvider, opts ...Option) *DataSource {
	ds := &DataSource{
		registry:   registry,
		router:     r,
		strategies: strategies,
		provider:   provider,
		rewriter:   datasource.IdentityRewriter{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(ds)
	}
	if ds.executor == nil {
		ds.executor = statement.NewExecutor(statement.Parallel, statement.WithExecutorLogger(ds.logger))
	}
	return ds
}

// Units 计算一条逻辑语句的路由结果，每个分区一个执行单元，按照分区的注册顺序排列
func (ds *DataSource) Units(ctx context.Context, sc *sharding.Context) ([]statement.Unit, error) {
	names, err := ds.router.Route(ctx, sc)
	if err != nil {
		return nil, err
	}
	units := make([]statement.Unit, 0, len(names))
	for _, name := range names {
		p, ok := ds.registry.Get(name)
		if !ok {
			return nil, errs.NewErrNotFoundPartition(name)
		}
		var (
			t    partition.Target
			role partition.Role
		)
		if sc.Type.IsRead() {
			t, role, err = ds.strategies.SelectRead(ctx, p)
		} else {
			t, role, err = ds.strategies.SelectWrite(ctx, p)
		}
		if err != nil {
			return nil, err
		}
		query, args, err := ds.rewriter.Rewrite(ctx, sc, name, t)
		if err != nil {
			return nil, err
		}
		units = append(units, statement.Unit{
			SQL:  query,
			Args: args,
			Target: statement.Target{
				Partition: name,
				Name:      t.Name,
				Role:      role,
			},
		})
	}
	return units, nil
}

// Session 开启一个逻辑连接
func (ds *DataSource) Session() *Session {
	return &Session{ds: ds}
}

// Registry 注册的所有分区
func (ds *DataSource) Registry() *partition.Registry {
	return ds.registry
}
