package readsplit

import (
	"github.com/meoying/shardrouter/internal/partition"
	"github.com/zhangyunhao116/skipmap"
	"go.uber.org/atomic"
)

var _ partition.Listener = &Counters{}

// Counters 每个分区一个计数器，进程级别共享，永不重置。
// 计数器在分区注册的时候创建，读路径上只有 Load 和原子自增
type Counters struct {
	m *skipmap.OrderedMap[string, *atomic.Uint64]
}

func NewCounters() *Counters {
	return &Counters{
		m: skipmap.New[string, *atomic.Uint64](),
	}
}

func (c *Counters) OnRegister(p *partition.Partition) {
	c.m.LoadOrStore(p.Name, atomic.NewUint64(0))
}

// Next 返回分区当前的计数值并自增
func (c *Counters) Next(name string) uint64 {
	cnt, ok := c.m.Load(name)
	if !ok {
		// 没有走注册流程的分区，LoadOrStore 保证只会有一个计数器胜出
		cnt, _ = c.m.LoadOrStore(name, atomic.NewUint64(0))
	}
	return cnt.Inc() - 1
}

func (c *Counters) Len() int {
	return c.m.Len()
}
