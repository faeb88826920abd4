package hash

import (
	"context"
	"fmt"

	"github.com/ecodeclub/ekit/set"
	"github.com/ecodeclub/ekit/slice"
	"github.com/meoying/shardrouter/internal/sharding"
	"github.com/meoying/shardrouter/internal/sharding/operator"
	"github.com/spaolacci/murmur3"
)

var _ sharding.Algorithm = &Hash{}

// Hash 取模分库，整数直接取模，字符串先用 murmur3 计算哈希
type Hash struct {
	ShardingKey string
	Pattern     *Pattern
}

type Pattern struct {
	// Name 分区名字的模板，例如 db_%d
	Name        string
	Base        int
	NotSharding bool
}

func (p *Pattern) name(idx uint64) string {
	if p.NotSharding {
		return p.Name
	}
	return fmt.Sprintf(p.Name, idx)
}

// Shard 每组绑定内部取交集，组与组之间取并集。
// 范围查询无法缩小范围，返回所有分区
func (h *Hash) Shard(_ context.Context, _ *sharding.Context, names []string, values [][]sharding.Value) ([]string, error) {
	hit := set.NewMapSet[string](len(names))
	for _, group := range values {
		dsts, err := h.shardGroup(names, group)
		if err != nil {
			return nil, err
		}
		for _, dst := range dsts {
			hit.Add(dst)
		}
	}
	return slice.FilterMap(names, func(idx int, src string) (string, bool) {
		return src, hit.Exist(src)
	}), nil
}

func (h *Hash) shardGroup(names []string, group []sharding.Value) ([]string, error) {
	var res []string
	constrained := false
	for _, val := range group {
		if val.Column != h.ShardingKey {
			continue
		}
		dsts, err := h.shardValue(names, val)
		if err != nil {
			return nil, err
		}
		if !constrained {
			res, constrained = dsts, true
			continue
		}
		res = slice.IntersectSet(res, dsts)
	}
	if !constrained {
		return names, nil
	}
	return res, nil
}

func (h *Hash) shardValue(names []string, val sharding.Value) ([]string, error) {
	switch {
	case val.Op == operator.OpEQ:
		dst, err := h.dst(val.Val)
		if err != nil {
			return nil, err
		}
		return []string{dst}, nil
	case val.Op == operator.OpIn:
		res := make([]string, 0, len(val.Vals))
		for _, v := range val.Vals {
			dst, err := h.dst(v)
			if err != nil {
				return nil, err
			}
			res = append(res, dst)
		}
		return slice.UnionSet(res, nil), nil
	case val.Op.IsRange():
		return names, nil
	default:
		return nil, NewErrUnsupportedOperator(val.Op)
	}
}

func (h *Hash) dst(val any) (string, error) {
	if h.Pattern.NotSharding {
		return h.Pattern.Name, nil
	}
	sum, err := hashOf(val)
	if err != nil {
		return "", err
	}
	return h.Pattern.name(sum % uint64(h.Pattern.Base)), nil
}

func hashOf(val any) (uint64, error) {
	switch v := val.(type) {
	case int:
		return abs(int64(v)), nil
	case int8:
		return abs(int64(v)), nil
	case int16:
		return abs(int64(v)), nil
	case int32:
		return abs(int64(v)), nil
	case int64:
		return abs(v), nil
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case string:
		return murmur3.Sum64([]byte(v)), nil
	case []byte:
		return murmur3.Sum64(v), nil
	default:
		return 0, NewErrUnsupportedValue(val)
	}
}

func abs(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func NewErrUnsupportedOperator(op operator.Op) error {
	return fmt.Errorf("hash 分库不支持的操作符 %v", op)
}

func NewErrUnsupportedValue(val any) error {
	return fmt.Errorf("hash 分库不支持的分片值类型 %T", val)
}
