package readsplit

import (
	"context"
	"math/rand/v2"

	"github.com/meoying/shardrouter/internal/partition"
)

var _ Strategy = &weight{}

// weight 按照权重随机选择读库。withWrite 的时候写库的权重也计算在内，
// 随机数落在读库权重之外就用写库。总权重为 0 的时候永远用写库
type weight struct {
	name      string
	withWrite bool
	intN      func(n int) int
}

type WeightOption func(w *weight)

// WithIntN 替换随机数来源，测试用
func WithIntN(fn func(n int) int) WeightOption {
	return func(w *weight) {
		w.intN = fn
	}
}

func NewWeight(opts ...WeightOption) Strategy {
	return newWeight(Weight, false, opts)
}

func NewWeightWithWrite(opts ...WeightOption) Strategy {
	return newWeight(WeightWithWrite, true, opts)
}

func newWeight(name string, withWrite bool, opts []WeightOption) *weight {
	w := &weight{name: name, withWrite: withWrite, intN: rand.IntN}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (s *weight) Name() string {
	return s.name
}

func (s *weight) Select(_ context.Context, p *partition.Partition) (partition.Target, error) {
	reads := p.Reads
	if len(reads) == 0 {
		return writeOf(p)
	}
	total := 0
	for _, r := range reads {
		total += max(r.Weight, 0)
	}
	extra := 0
	if s.withWrite && !p.Write.IsZero() {
		extra = max(p.Write.Weight, 0)
	}
	if total == 0 {
		return writeOf(p)
	}
	rdm := s.intN(total + extra)
	if rdm < total {
		acc := 0
		for _, r := range reads {
			acc += max(r.Weight, 0)
			if acc > rdm {
				return r, nil
			}
		}
	}
	return writeOf(p)
}
