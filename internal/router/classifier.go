package router

import (
	"strings"

	"github.com/meoying/shardrouter/internal/sharding"
)

// Skip 一张被跳过的从属表，以及决定它分片结果的表
type Skip struct {
	Table     string
	Governing string
}

// Classify 按照声明顺序找出需要独立路由的表。
// 某张表的 LayerKey 以前面已经接受的表的 LayerKey 为前缀时，它跟随那张表的分片结果，不再单独路由。
// 同一张表重复出现的时候也只会被接受一次
func Classify(tables []sharding.LogicTable) ([]sharding.LogicTable, []Skip) {
	independent := make([]sharding.LogicTable, 0, len(tables))
	var skips []Skip
tables:
	for _, table := range tables {
		for _, accepted := range independent {
			if strings.HasPrefix(table.LayerKey, accepted.LayerKey) {
				skips = append(skips, Skip{Table: table.Name, Governing: accepted.Name})
				continue tables
			}
		}
		independent = append(independent, table)
	}
	return independent, skips
}
