package router

import (
	"context"
	"log/slog"
	"slices"

	"github.com/ecodeclub/ekit/set"
	"github.com/ecodeclub/ekit/slice"
	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/metrics"
	"github.com/meoying/shardrouter/internal/partition"
	"github.com/meoying/shardrouter/internal/sharding"
	"go.uber.org/atomic"
)

const (
	outcomeRouted    = "routed"
	outcomeBroadcast = "broadcast"
	outcomeDefault   = "default"
	outcomeFailed    = "failed"
)

// Router 把逻辑语句解析到分区。纯计算，一次逻辑语句内单线程
type Router struct {
	registry *partition.Registry
	resolver sharding.Resolver
	logger   *slog.Logger
	metrics  *metrics.Metrics
	// strict 为 true 的时候非 INSERT 语句没有命中分片键也报错，而不是广播
	strict bool
	// globalReads 全局表读请求轮询副本
	globalReads *atomic.Uint64
}

type Option func(r *Router)

func WithResolver(resolver sharding.Resolver) Option {
	return func(r *Router) {
		r.resolver = resolver
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithStrictShardKey 要求所有语句都必须命中分片键
func WithStrictShardKey() Option {
	return func(r *Router) {
		r.strict = true
	}
}

func NewRouter(registry *partition.Registry, opts ...Option) *Router {
	r := &Router{
		registry:    registry,
		resolver:    sharding.MapResolver{},
		logger:      slog.Default(),
		globalReads: atomic.NewUint64(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.New(nil)
	}
	return r
}

// Route 返回语句需要执行的分区，按照注册顺序排列，成功时永远不为空
func (r *Router) Route(ctx context.Context, sc *sharding.Context) ([]string, error) {
	all := r.registry.Names()
	independent, skips := Classify(sc.Tables)
	for _, skip := range skips {
		r.logger.InfoContext(ctx, "从属表使用主表的分片规则",
			slog.String("table", skip.Table),
			slog.String("governing", skip.Governing))
	}

	var (
		candidates [][]string
		sharded    bool
		allGlobal  = len(independent) > 0
	)
	for _, table := range independent {
		if table.Sharding != nil || table.IsGlobal() {
			sharded = true
		}
		if !table.IsGlobal() {
			allGlobal = false
		}
		names, err := r.routeTable(ctx, sc, table, all)
		if err != nil {
			r.metrics.Routes.WithLabelValues(sc.Type.String(), outcomeFailed).Inc()
			return nil, err
		}
		if len(names) == 0 {
			continue
		}
		r.logger.InfoContext(ctx, "逻辑表候选分区",
			slog.String("table", table.Name),
			slog.Any("partitions", names))
		candidates = append(candidates, names)
	}

	if !sharded {
		if dflt := r.registry.Default(); dflt != nil {
			r.metrics.Routes.WithLabelValues(sc.Type.String(), outcomeDefault).Inc()
			return []string{dflt.Name}, nil
		}
	}

	var res []string
	if len(candidates) > 0 {
		res = intersect(all, candidates)
	}
	if len(res) == 0 {
		return r.fallback(ctx, sc, all)
	}
	// 全局表每个分区都有完整的副本，读一个就够了，轮流读
	if allGlobal && sc.Type.IsRead() {
		idx := (r.globalReads.Inc() - 1) % uint64(len(res))
		res = res[idx : idx+1]
	}
	r.metrics.Routes.WithLabelValues(sc.Type.String(), outcomeRouted).Inc()
	return res, nil
}

func (r *Router) routeTable(ctx context.Context, sc *sharding.Context, table sharding.LogicTable, all []string) ([]string, error) {
	if table.IsGlobal() {
		return table.GlobalPartitions, nil
	}
	cfg := table.Sharding
	if cfg == nil {
		return nil, nil
	}
	values, err := r.resolver.Resolve(ctx, sc, table.Name, cfg.Columns)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return cfg.Algorithm.Shard(ctx, sc, all, values)
}

func (r *Router) fallback(ctx context.Context, sc *sharding.Context, all []string) ([]string, error) {
	if sc.Type == sharding.Insert {
		r.metrics.Routes.WithLabelValues(sc.Type.String(), outcomeFailed).Inc()
		return nil, errs.NewRoutingError(sc.SQL, "无法为 INSERT 语句确定分区")
	}
	if r.strict {
		r.metrics.Routes.WithLabelValues(sc.Type.String(), outcomeFailed).Inc()
		return nil, errs.NewRoutingError(sc.SQL, "语句没有命中分片键")
	}
	if len(all) == 0 {
		r.metrics.Routes.WithLabelValues(sc.Type.String(), outcomeFailed).Inc()
		return nil, errs.NewRoutingError(sc.SQL, "没有注册任何分区")
	}
	r.logger.InfoContext(ctx, "没有合适的分区，使用所有分区",
		slog.String("sql", sc.SQL),
		slog.Any("partitions", all))
	r.metrics.Routes.WithLabelValues(sc.Type.String(), outcomeBroadcast).Inc()
	return slices.Clone(all), nil
}

// intersect 以所有分区为起点依次取交集，这样算法返回的未知分区会被自然丢弃，结果保持注册顺序
func intersect(all []string, candidates [][]string) []string {
	res := all
	for _, names := range candidates {
		hit := set.NewMapSet[string](len(names))
		for _, name := range names {
			hit.Add(name)
		}
		res = slice.FilterMap(res, func(idx int, src string) (string, bool) {
			return src, hit.Exist(src)
		})
	}
	return res
}
