package readsplit

import (
	"context"

	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/partition"
)

const (
	OnlyWrite        = partition.StrategyOnlyWrite
	Polling          = "polling"
	PollingWithWrite = "polling-w"
	Weight           = "weight"
	WeightWithWrite  = "weight-w"
)

// Strategy 为一次读请求从分区中挑选一个物理库
type Strategy interface {
	Name() string
	Select(ctx context.Context, p *partition.Partition) (partition.Target, error)
}

type useWriteKey struct{}

// UseWrite 强制读请求走写库，例如 SELECT 语句里面带了 useMaster 的 hint
func UseWrite(ctx context.Context) context.Context {
	return context.WithValue(ctx, useWriteKey{}, true)
}

func IsUseWrite(ctx context.Context) bool {
	val, _ := ctx.Value(useWriteKey{}).(bool)
	return val
}

func writeOf(p *partition.Partition) (partition.Target, error) {
	if p.Write.IsZero() {
		return partition.Target{}, errs.ErrNoWriteTarget
	}
	return p.Write, nil
}

type onlyWrite struct{}

func (onlyWrite) Name() string {
	return OnlyWrite
}

func (onlyWrite) Select(_ context.Context, p *partition.Partition) (partition.Target, error) {
	return writeOf(p)
}
