package config

import (
	"github.com/ecodeclub/ekit/set"
	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/statement"
)

// Validate 检查配置，补全默认值。读策略的名字不在这里检查，第一次使用的时候才会报错
func (c *Config) Validate() error {
	for name, a := range c.Algorithms {
		if a.Hash == nil {
			return errs.NewErrInvalidAlgorithm(name, "没有指定算法类型")
		}
		if a.Hash.ShardingKey == "" {
			return errs.NewErrInvalidAlgorithm(name, "没有指定分片键")
		}
		if !a.Hash.NotSharding && a.Hash.Base <= 0 {
			return errs.NewErrInvalidAlgorithm(name, "base 必须大于 0")
		}
	}

	partitions := set.NewMapSet[string](len(c.Partitions))
	dflt := ""
	for _, p := range c.Partitions {
		if p.Name == "" {
			return errs.ErrPartitionNameAbsent
		}
		if partitions.Exist(p.Name) {
			return errs.NewErrDuplicatePartition(p.Name)
		}
		if p.Write.Name == "" && len(p.Reads) == 0 {
			return errs.NewErrEmptyPartition(p.Name)
		}
		if p.Default {
			if dflt != "" {
				return errs.NewErrDuplicateDefault(dflt, p.Name)
			}
			dflt = p.Name
		}
		partitions.Add(p.Name)
	}

	tables := set.NewMapSet[string](len(c.Tables))
	layerKeys := make(map[string]string, len(c.Tables))
	for i := range c.Tables {
		t := &c.Tables[i]
		if t.Name == "" {
			return errs.NewErrInvalidTable(t.Name, "表名为空")
		}
		if tables.Exist(t.Name) {
			return errs.NewErrDuplicateTable(t.Name)
		}
		tables.Add(t.Name)
		if t.LayerKey == "" {
			t.LayerKey = t.Name
		}
		// layerKey 相同的两张表互为前缀，也就是依赖关系成环
		if other, ok := layerKeys[t.LayerKey]; ok {
			return errs.NewErrDuplicateLayerKey(t.LayerKey, t.Name, other)
		}
		layerKeys[t.LayerKey] = t.Name
		if t.Sharding != nil && len(t.Global) > 0 {
			return errs.NewErrInvalidTable(t.Name, "全局表不能配置分库规则")
		}
		if t.Sharding != nil {
			if len(t.Sharding.Columns) == 0 {
				return errs.NewErrInvalidTable(t.Name, "没有分片列")
			}
			if _, ok := c.Algorithms[t.Sharding.Algorithm]; !ok {
				return errs.NewErrUnknownAlgorithm(t.Sharding.Algorithm)
			}
		}
		for _, name := range t.Global {
			if !partitions.Exist(name) {
				return errs.NewErrNotFoundPartition(name)
			}
		}
	}
	_, err := c.Executor.ModeOf()
	return err
}

func (e Executor) ModeOf() (statement.Mode, error) {
	switch e.Mode {
	case "", "parallel":
		return statement.Parallel, nil
	case "sequential":
		return statement.Sequential, nil
	default:
		return statement.Parallel, errs.NewErrUnknownExecutorMode(e.Mode)
	}
}
