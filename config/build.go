package config

import (
	"github.com/meoying/shardrouter/internal/partition"
	"github.com/meoying/shardrouter/internal/sharding"
	"github.com/meoying/shardrouter/internal/sharding/hash"
	"github.com/meoying/shardrouter/internal/statement"
)

func (t Target) target() partition.Target {
	return partition.Target{Name: t.Name, DSN: t.DSN, Weight: t.Weight}
}

// Registry 按照声明的顺序注册所有分区
func (c *Config) Registry(listeners ...partition.Listener) (*partition.Registry, error) {
	r := partition.NewRegistry(listeners...)
	for _, p := range c.Partitions {
		opts := []partition.Option{
			partition.WithDetectors(p.Detectors.Write.target(), p.Detectors.Read.target()),
			partition.WithStandby(p.Standby.Target.target(), p.Standby.Detector.target()),
		}
		if len(p.Reads) > 0 {
			reads := make([]partition.Target, 0, len(p.Reads))
			for _, t := range p.Reads {
				reads = append(reads, t.target())
			}
			opts = append(opts, partition.WithReads(reads...))
		}
		if p.PoolSize > 0 {
			opts = append(opts, partition.WithPoolSize(p.PoolSize))
		}
		if p.ReadStrategy != "" {
			opts = append(opts, partition.WithReadStrategy(p.ReadStrategy))
		}
		if p.Default {
			opts = append(opts, partition.AsDefault())
		}
		if err := r.Register(partition.NewPartition(p.Name, p.Write.target(), opts...)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ShardingAlgorithms 创建所有命名的分片算法
func (c *Config) ShardingAlgorithms() (*sharding.Repository, error) {
	repo := sharding.NewRepository()
	for name, a := range c.Algorithms {
		algo := &hash.Hash{
			ShardingKey: a.Hash.ShardingKey,
			Pattern: &hash.Pattern{
				Name:        a.Hash.Name,
				Base:        a.Hash.Base,
				NotSharding: a.Hash.NotSharding,
			},
		}
		if err := repo.Register(name, algo); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// LogicTables 按照表名返回逻辑表，上游的解析器按照语句中出现的顺序组装
func (c *Config) LogicTables(repo *sharding.Repository) (map[string]sharding.LogicTable, error) {
	res := make(map[string]sharding.LogicTable, len(c.Tables))
	for _, t := range c.Tables {
		lt := sharding.LogicTable{
			Name:             t.Name,
			LayerKey:         t.LayerKey,
			GlobalPartitions: t.Global,
		}
		if t.Sharding != nil {
			algo, err := repo.Get(t.Sharding.Algorithm)
			if err != nil {
				return nil, err
			}
			lt.Sharding = &sharding.Config{
				Columns:   t.Sharding.Columns,
				Algorithm: algo,
			}
		}
		res[t.Name] = lt
	}
	return res, nil
}

// NewExecutor 按照配置创建执行器
func (c *Config) NewExecutor(opts ...statement.ExecutorOption) (*statement.Executor, error) {
	mode, err := c.Executor.ModeOf()
	if err != nil {
		return nil, err
	}
	opts = append(opts, statement.WithLimit(c.Executor.MaxParallel))
	return statement.NewExecutor(mode, opts...), nil
}
