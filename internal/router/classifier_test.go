package router

import (
	"testing"

	"github.com/meoying/shardrouter/internal/sharding"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name      string
		tables    []sharding.LogicTable
		wantNames []string
		wantSkips []Skip
	}{
		{
			name: "A, A.B, C",
			tables: []sharding.LogicTable{
				{Name: "a", LayerKey: "A"},
				{Name: "ab", LayerKey: "A.B"},
				{Name: "c", LayerKey: "C"},
			},
			wantNames: []string{"a", "c"},
			wantSkips: []Skip{{Table: "ab", Governing: "a"}},
		},
		{
			name: "从属表在前面的时候两张都要独立路由",
			tables: []sharding.LogicTable{
				{Name: "ab", LayerKey: "A.B"},
				{Name: "a", LayerKey: "A"},
			},
			wantNames: []string{"ab", "a"},
		},
		{
			name: "多层依赖",
			tables: []sharding.LogicTable{
				{Name: "order", LayerKey: "order"},
				{Name: "order_item", LayerKey: "order.item"},
				{Name: "order_item_log", LayerKey: "order.item.log"},
			},
			wantNames: []string{"order"},
			wantSkips: []Skip{
				{Table: "order_item", Governing: "order"},
				{Table: "order_item_log", Governing: "order"},
			},
		},
		{
			name: "同一张表出现两次",
			tables: []sharding.LogicTable{
				{Name: "order", LayerKey: "order"},
				{Name: "order", LayerKey: "order"},
			},
			wantNames: []string{"order"},
			wantSkips: []Skip{{Table: "order", Governing: "order"}},
		},
		{
			name:      "没有表",
			wantNames: []string{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			independent, skips := Classify(tc.tables)
			names := make([]string, 0, len(independent))
			for _, table := range independent {
				names = append(names, table.Name)
			}
			assert.Equal(t, tc.wantNames, names)
			assert.Equal(t, tc.wantSkips, skips)
		})
	}
}
