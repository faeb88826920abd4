package detector

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/ecodeclub/ekit/retry"
	"github.com/ecodeclub/ekit/syncx"
	"github.com/meoying/shardrouter/internal/metrics"
	"github.com/meoying/shardrouter/internal/partition"
	"golang.org/x/sync/errgroup"
)

// DBProvider 按照名字返回探活数据源的连接池
type DBProvider interface {
	DB(target string) (*sql.DB, error)
}

// Status 某个探活数据源最近一次的探活结果
type Status struct {
	Partition string
	Target    string
	Up        bool
	Err       error
	CheckedAt time.Time
}

type Detector struct {
	registry *partition.Registry
	provider DBProvider

	interval   time.Duration
	timeout    time.Duration
	initial    time.Duration
	maxBackoff time.Duration
	maxRetries int32

	status  syncx.Map[string, Status]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(d *Detector)

func WithInterval(interval time.Duration) Option {
	return func(d *Detector) {
		d.interval = interval
	}
}

// WithTimeout 单次 ping 的超时时间
func WithTimeout(timeout time.Duration) Option {
	return func(d *Detector) {
		d.timeout = timeout
	}
}

// WithRetry 单次探活失败之后按照指数退避重试
func WithRetry(initial, maxBackoff time.Duration, maxRetries int32) Option {
	return func(d *Detector) {
		d.initial = initial
		d.maxBackoff = maxBackoff
		d.maxRetries = maxRetries
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Detector) {
		d.metrics = m
	}
}

func New(registry *partition.Registry, provider DBProvider, opts ...Option) *Detector {
	d := &Detector{
		registry:   registry,
		provider:   provider,
		interval:   10 * time.Second,
		timeout:    time.Second,
		initial:    100 * time.Millisecond,
		maxBackoff: time.Second,
		maxRetries: 3,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = metrics.New(nil)
	}
	return d
}

// Run 每隔 interval 探活一次，直到 ctx 结束
func (d *Detector) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		d.Probe(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Probe 对所有的探活数据源探活一次
func (d *Detector) Probe(ctx context.Context) {
	var eg errgroup.Group
	for _, p := range d.registry.Partitions() {
		for _, t := range p.Detectors() {
			name, target := p.Name, t.Name
			eg.Go(func() error {
				d.probe(ctx, name, target)
				return nil
			})
		}
	}
	_ = eg.Wait()
}

func (d *Detector) probe(ctx context.Context, partitionName, target string) {
	st := Status{Partition: partitionName, Target: target}
	db, err := d.provider.DB(target)
	if err == nil {
		err = d.ping(ctx, db)
	}
	st.Up = err == nil
	st.Err = err
	st.CheckedAt = time.Now()

	prev, loaded := d.status.Load(target)
	d.status.Store(target, st)
	if !loaded || prev.Up != st.Up {
		if st.Up {
			d.logger.Info("探活成功", slog.String("partition", partitionName), slog.String("target", target))
		} else {
			d.logger.Error("探活失败", slog.String("partition", partitionName),
				slog.String("target", target), slog.Any("err", err))
		}
	}
	up, result := 0.0, "failure"
	if st.Up {
		up, result = 1, "success"
	}
	d.metrics.DetectorUp.WithLabelValues(partitionName, target).Set(up)
	d.metrics.DetectorProbes.WithLabelValues(partitionName, target, result).Inc()
}

func (d *Detector) ping(ctx context.Context, db *sql.DB) error {
	strategy, err := retry.NewExponentialBackoffRetryStrategy(d.initial, d.maxBackoff, d.maxRetries)
	if err != nil {
		return err
	}
	for {
		pctx, cancel := context.WithTimeout(ctx, d.timeout)
		err = db.PingContext(pctx)
		cancel()
		if err == nil {
			return nil
		}
		next, ok := strategy.Next()
		if !ok {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next):
		}
	}
}

// Status 返回探活数据源最近一次的探活结果，还没有探活过返回 false
func (d *Detector) Status(target string) (Status, bool) {
	return d.status.Load(target)
}

// Statuses 按照注册顺序返回所有已经探活过的结果
func (d *Detector) Statuses() []Status {
	res := make([]Status, 0, d.registry.Len())
	for _, p := range d.registry.Partitions() {
		for _, t := range p.Detectors() {
			if st, ok := d.status.Load(t.Name); ok {
				res = append(res, st)
			}
		}
	}
	return res
}
