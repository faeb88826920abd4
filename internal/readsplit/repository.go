package readsplit

import (
	"context"
	"log/slog"

	"github.com/ecodeclub/ekit/syncx"
	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/metrics"
	"github.com/meoying/shardrouter/internal/partition"
)

// Repository 读策略的查找表，启动时按名字注册
type Repository struct {
	strategies syncx.Map[string, Strategy]
	counters   *Counters
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(r *Repository)

func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// NewRepository 创建查找表并注册内置的五种读策略
func NewRepository(counters *Counters, opts ...Option) *Repository {
	r := &Repository{
		counters: counters,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = metrics.New(nil)
	}
	for _, s := range []Strategy{
		onlyWrite{},
		NewPolling(counters),
		NewPollingWithWrite(counters),
		NewWeight(),
		NewWeightWithWrite(),
	} {
		r.strategies.Store(s.Name(), s)
	}
	return r
}

// Register 注册自定义读策略，不允许覆盖已有的策略
func (r *Repository) Register(s Strategy) error {
	if _, loaded := r.strategies.LoadOrStore(s.Name(), s); loaded {
		return errs.NewErrDuplicateReadStrategy(s.Name())
	}
	return nil
}

// Get 未知的读策略是配置错误，不会退化成 only-write
func (r *Repository) Get(name string) (Strategy, error) {
	if name == "" {
		name = OnlyWrite
	}
	s, ok := r.strategies.Load(name)
	if !ok {
		return nil, errs.NewErrUnknownReadStrategy(name)
	}
	return s, nil
}

// SelectRead 为读请求选择物理库
func (r *Repository) SelectRead(ctx context.Context, p *partition.Partition) (partition.Target, partition.Role, error) {
	if IsUseWrite(ctx) {
		return r.write(p)
	}
	s, err := r.Get(p.ReadStrategy)
	if err != nil {
		return partition.Target{}, partition.RoleWrite, err
	}
	tgt, err := s.Select(ctx, p)
	if err != nil {
		return partition.Target{}, partition.RoleWrite, err
	}
	role := partition.RoleRead
	if tgt.Name == p.Write.Name {
		role = partition.RoleWrite
	}
	r.logger.DebugContext(ctx, "选择读库",
		slog.String("partition", p.Name),
		slog.String("strategy", s.Name()),
		slog.String("target", tgt.Name))
	r.metrics.ReadSelections.WithLabelValues(p.Name, tgt.Name, role.String()).Inc()
	return tgt, role, nil
}

// SelectWrite 写请求永远走写库
func (r *Repository) SelectWrite(_ context.Context, p *partition.Partition) (partition.Target, partition.Role, error) {
	return r.write(p)
}

func (r *Repository) write(p *partition.Partition) (partition.Target, partition.Role, error) {
	tgt, err := writeOf(p)
	return tgt, partition.RoleWrite, err
}

func (r *Repository) Counters() *Counters {
	return r.counters
}
