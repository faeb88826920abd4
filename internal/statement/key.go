package statement

import (
	"github.com/cespare/xxhash/v2"
)

// keyOf 缓存的 key，哈希冲突时再比较 SQL 和物理库名字
func keyOf(sql, target string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(sql)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(target)
	return d.Sum64()
}
