package partition

import (
	"github.com/ecodeclub/ekit/set"
	"github.com/meoying/shardrouter/internal/errs"
)

// Listener 分区注册时的回调，读策略的计数器在这里创建
type Listener interface {
	OnRegister(p *Partition)
}

// Registry 分区注册中心。启动时注册，之后只读，所以读取不需要加锁
type Registry struct {
	partitions map[string]*Partition
	names      []string
	targets    *set.MapSet[string]
	dflt       *Partition
	listeners  []Listener
}

func NewRegistry(listeners ...Listener) *Registry {
	return &Registry{
		partitions: make(map[string]*Partition, 8),
		targets:    set.NewMapSet[string](16),
		listeners:  listeners,
	}
}

// Register 注册分区，必须在启动阶段完成
func (r *Registry) Register(p *Partition) error {
	if p.Name == "" {
		return errs.ErrPartitionNameAbsent
	}
	if _, ok := r.partitions[p.Name]; ok {
		return errs.NewErrDuplicatePartition(p.Name)
	}
	if p.Write.IsZero() && len(p.Reads) == 0 {
		return errs.NewErrEmptyPartition(p.Name)
	}
	if p.Default && r.dflt != nil {
		return errs.NewErrDuplicateDefault(r.dflt.Name, p.Name)
	}
	targets := append(p.Targets(), p.Detectors()...)
	local := set.NewMapSet[string](len(targets))
	for _, t := range targets {
		if local.Exist(t.Name) || r.targets.Exist(t.Name) {
			return errs.NewErrDuplicateTarget(p.Name, t.Name)
		}
		local.Add(t.Name)
	}
	for _, name := range local.Keys() {
		r.targets.Add(name)
	}
	r.partitions[p.Name] = p
	r.names = append(r.names, p.Name)
	if p.Default {
		r.dflt = p
	}
	for _, l := range r.listeners {
		l.OnRegister(p)
	}
	return nil
}

// Names 按照注册顺序返回所有分区名字，调用方不能修改返回值
func (r *Registry) Names() []string {
	return r.names
}

func (r *Registry) Get(name string) (*Partition, bool) {
	p, ok := r.partitions[name]
	return p, ok
}

// Default 返回默认分区，没有配置的时候返回 nil
func (r *Registry) Default() *Partition {
	return r.dflt
}

// Partitions 按照注册顺序返回所有分区
func (r *Registry) Partitions() []*Partition {
	res := make([]*Partition, 0, len(r.names))
	for _, name := range r.names {
		res = append(res, r.partitions[name])
	}
	return res
}

func (r *Registry) Len() int {
	return len(r.names)
}
