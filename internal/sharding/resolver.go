package sharding

import (
	"context"
)

var _ Resolver = MapResolver{}

// MapResolver 直接使用 Context.Bindings 中解析器已经抽取好的值
type MapResolver struct{}

func (MapResolver) Resolve(_ context.Context, sc *Context, table string, columns []string) ([][]Value, error) {
	cols, ok := sc.Bindings[table]
	if !ok {
		return nil, nil
	}
	var res []Value
	for _, col := range columns {
		res = append(res, cols[col]...)
	}
	if len(res) == 0 {
		return nil, nil
	}
	return [][]Value{res}, nil
}
