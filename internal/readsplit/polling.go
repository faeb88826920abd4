package readsplit

import (
	"context"

	"github.com/meoying/shardrouter/internal/partition"
)

var _ Strategy = &polling{}

// polling 轮询读库。extra 不为 0 的时候写库也参与轮询，
// 下标 counter % (len(reads) + extra) 落在读库之外就用写库
type polling struct {
	name     string
	extra    int
	counters *Counters
}

func NewPolling(counters *Counters) Strategy {
	return &polling{name: Polling, counters: counters}
}

func NewPollingWithWrite(counters *Counters) Strategy {
	return &polling{name: PollingWithWrite, extra: 1, counters: counters}
}

func (s *polling) Name() string {
	return s.name
}

func (s *polling) Select(_ context.Context, p *partition.Partition) (partition.Target, error) {
	reads := p.Reads
	if len(reads) == 0 {
		return writeOf(p)
	}
	extra := s.extra
	if p.Write.IsZero() {
		extra = 0
	}
	total := uint64(len(reads) + extra)
	idx := int(s.counters.Next(p.Name) % total)
	if idx < len(reads) {
		return reads[idx], nil
	}
	return p.Write, nil
}
