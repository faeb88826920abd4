package operator

// Op 分片值绑定时使用的操作符
type Op struct {
	Symbol string
	Text   string
}

var (
	OpEQ      = Op{Symbol: "=", Text: "="}
	OpNEQ     = Op{Symbol: "!=", Text: "!="}
	OpLT      = Op{Symbol: "<", Text: "<"}
	OpLTEQ    = Op{Symbol: "<=", Text: "<="}
	OpGT      = Op{Symbol: ">", Text: ">"}
	OpGTEQ    = Op{Symbol: ">=", Text: ">="}
	OpIn      = Op{Symbol: "IN", Text: " IN "}
	OpNotIN   = Op{Symbol: "NOT IN", Text: " NOT IN "}
	OpBetween = Op{Symbol: "BETWEEN", Text: " BETWEEN "}
)

// IsRange 范围类操作符，哈希类算法无法据此缩小范围
func (o Op) IsRange() bool {
	switch o {
	case OpLT, OpLTEQ, OpGT, OpGTEQ, OpBetween, OpNEQ, OpNotIN:
		return true
	default:
		return false
	}
}

func (o Op) String() string {
	return o.Symbol
}
