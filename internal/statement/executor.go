package statement

import (
	"context"
	"log/slog"

	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/metrics"
	"golang.org/x/sync/errgroup"
)

type Mode uint8

const (
	// Parallel 每个物理语句一个 goroutine
	Parallel Mode = iota
	// Sequential 按照路由顺序一个一个执行
	Sequential
)

func (m Mode) String() string {
	if m == Sequential {
		return "sequential"
	}
	return "parallel"
}

type Executor struct {
	mode    Mode
	limit   int
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type ExecutorOption func(e *Executor)

// WithLimit 并发执行的时候同时执行的物理语句上限，小于等于 0 表示不限制
func WithLimit(n int) ExecutorOption {
	return func(e *Executor) {
		e.limit = n
	}
}

func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = l
	}
}

func WithExecutorMetrics(m *metrics.Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

func NewExecutor(mode Mode, opts ...ExecutorOption) *Executor {
	e := &Executor{
		mode:   mode,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New(nil)
	}
	return e
}

func (e *Executor) Mode() Mode {
	return e.mode
}

// Run 在所有的物理语句上执行 cb，结果的顺序和 handles 一致。
// 任何一个失败都返回第一个错误，其余已经拿到的结果会被关闭，不会返回部分结果
func Run[T any](ctx context.Context, e *Executor, handles []*Handle, cb Callback[T]) ([]T, error) {
	e.metrics.FanOut.Observe(float64(len(handles)))
	res := make([]T, len(handles))
	done := make([]bool, len(handles))
	fn := func(ctx context.Context, idx int, h *Handle) error {
		r, err := cb(ctx, h)
		if err != nil {
			return err
		}
		res[idx] = r
		done[idx] = true
		return nil
	}
	var err error
	if e.mode == Sequential || len(handles) == 1 {
		err = e.sequential(ctx, handles, fn)
	} else {
		err = e.parallel(ctx, handles, fn)
	}
	if err != nil {
		for idx, r := range res {
			if !done[idx] {
				continue
			}
			handles[idx].discard(any(r))
		}
		return nil, err
	}
	return res, nil
}

func (e *Executor) sequential(ctx context.Context, handles []*Handle,
	fn func(ctx context.Context, idx int, h *Handle) error) error {
	for idx, h := range handles {
		if err := fn(ctx, idx, h); err != nil {
			return e.wrap(h, err)
		}
	}
	return nil
}

func (e *Executor) parallel(ctx context.Context, handles []*Handle,
	fn func(ctx context.Context, idx int, h *Handle) error) error {
	// 不能用 errgroup.WithContext，Wait 返回之后 ctx 会被取消，查询拿到的结果集也会跟着失效
	var eg errgroup.Group
	if e.limit > 0 {
		eg.SetLimit(e.limit)
	}
	for idx, h := range handles {
		idx, h := idx, h
		eg.Go(func() error {
			if err := fn(ctx, idx, h); err != nil {
				return e.wrap(h, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (e *Executor) wrap(h *Handle, err error) error {
	t := h.Target()
	e.logger.Error("物理语句执行失败",
		slog.String("partition", t.Partition),
		slog.String("target", t.Name),
		slog.String("sql", h.SQL()),
		slog.Any("err", err))
	e.metrics.ExecFailures.WithLabelValues(t.Partition, t.Name).Inc()
	return errs.NewExecutionError(t.Partition, t.Name, h.SQL(), err)
}
