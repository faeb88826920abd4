package partition

import (
	"runtime"

	"github.com/meoying/shardrouter/internal/errs"
)

const (
	// StrategyOnlyWrite 默认读策略，读请求也走写库
	StrategyOnlyWrite = "only-write"
)

// Role 物理库在分区里面扮演的角色
type Role uint8

const (
	RoleWrite Role = iota
	RoleRead
)

func (r Role) String() string {
	if r == RoleRead {
		return "read"
	}
	return "write"
}

// Target 物理库的描述信息，真正的连接池由 pool 包管理
type Target struct {
	// Name 物理库名字，整个注册中心唯一，连接池按照它来申请连接
	Name string
	DSN  string
	// Weight 读策略 weight / weight-w 使用
	Weight int
}

func (t Target) IsZero() bool {
	return t.Name == ""
}

// Partition 一个逻辑分区，一个写库 + 若干读库组成的一组物理库
//
//	         Client
//	           /\
//	         /    \
//	Write DB  ->  Read DBs
//
// Detector 只用于探活，从来不会用来执行语句，避免连接池满的时候无法探活
type Partition struct {
	Name  string
	Write Target
	Reads []Target

	// WriteDetector 和写库指向同一个数据库的探活数据源
	WriteDetector Target
	// ReadDetector 和 Reads 中的某一个读库指向同一个数据库的探活数据源
	ReadDetector Target

	// Standby 备用写库，HA 场景下只用于探活
	Standby         Target
	StandbyDetector Target

	// PoolSize 连接池大小的提示
	PoolSize int
	// ReadStrategy 读策略的名字
	ReadStrategy string
	// Default 没有命中任何分片表的语句会使用默认分区
	Default bool
}

// Option 调整 Partition 的选项
type Option func(p *Partition)

func WithReads(reads ...Target) Option {
	return func(p *Partition) {
		p.Reads = reads
	}
}

func WithDetectors(write, read Target) Option {
	return func(p *Partition) {
		p.WriteDetector = write
		p.ReadDetector = read
	}
}

func WithStandby(standby, detector Target) Option {
	return func(p *Partition) {
		p.Standby = standby
		p.StandbyDetector = detector
	}
}

func WithPoolSize(size int) Option {
	return func(p *Partition) {
		p.PoolSize = size
	}
}

func WithReadStrategy(name string) Option {
	return func(p *Partition) {
		p.ReadStrategy = name
	}
}

func AsDefault() Option {
	return func(p *Partition) {
		p.Default = true
	}
}

// NewPartition 创建分区，poolSize 默认为 CPU 核数 * 2
func NewPartition(name string, write Target, opts ...Option) *Partition {
	p := &Partition{
		Name:         name,
		Write:        write,
		PoolSize:     runtime.NumCPU() * 2,
		ReadStrategy: StrategyOnlyWrite,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetWrite 设置写库，只能设置一次
func (p *Partition) SetWrite(t Target) error {
	if t.IsZero() {
		return errs.ErrNoWriteTarget
	}
	if !p.Write.IsZero() {
		return errs.NewErrDuplicateWriteTarget(p.Name)
	}
	p.Write = t
	return nil
}

// SetReads 设置读库列表，只能设置一次，且不能为空
func (p *Partition) SetReads(reads []Target) error {
	if len(reads) == 0 {
		return errs.ErrEmptyReadTargets
	}
	if len(p.Reads) > 0 {
		return errs.NewErrDuplicateReadTargets(p.Name)
	}
	p.Reads = append([]Target(nil), reads...)
	return nil
}

// Targets 返回所有用于执行语句的物理库，写库在前
func (p *Partition) Targets() []Target {
	res := make([]Target, 0, len(p.Reads)+1)
	if !p.Write.IsZero() {
		res = append(res, p.Write)
	}
	return append(res, p.Reads...)
}

// Detectors 返回所有探活数据源
func (p *Partition) Detectors() []Target {
	res := make([]Target, 0, 3)
	for _, t := range []Target{p.WriteDetector, p.ReadDetector, p.StandbyDetector} {
		if !t.IsZero() {
			res = append(res, t)
		}
	}
	return res
}
