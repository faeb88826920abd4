package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/meoying/shardrouter/internal/datasource/shardingsource"
	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/sharding"
	"github.com/meoying/shardrouter/internal/sharding/operator"
)

// explainRequest 上游解析器的输出。一个列只有一个值是等值绑定，多个值是 IN
type explainRequest struct {
	Type     string                      `json:"type"`
	SQL      string                      `json:"sql"`
	Tables   []string                    `json:"tables"`
	Bindings map[string]map[string][]any `json:"bindings"`
}

type explainUnit struct {
	Partition string `json:"partition"`
	Target    string `json:"target"`
	Role      string `json:"role"`
	SQL       string `json:"sql"`
}

// explainHandler 只计算路由结果，不执行
type explainHandler struct {
	ds     *shardingsource.DataSource
	tables map[string]sharding.LogicTable
	logger *slog.Logger
}

var statementTypes = map[string]sharding.StatementType{
	"select": sharding.Select,
	"insert": sharding.Insert,
	"update": sharding.Update,
	"delete": sharding.Delete,
	"ddl":    sharding.DDL,
	"other":  sharding.Other,
}

func (h *explainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req explainRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sc, err := h.contextOf(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	units, err := h.ds.Units(r.Context(), sc)
	if err != nil {
		h.logger.Info("explain 路由失败", slog.String("sql", req.SQL), slog.Any("err", err))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	res := make([]explainUnit, 0, len(units))
	for _, u := range units {
		res = append(res, explainUnit{
			Partition: u.Target.Partition,
			Target:    u.Target.Name,
			Role:      u.Target.Role.String(),
			SQL:       u.SQL,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (h *explainHandler) contextOf(req explainRequest) (*sharding.Context, error) {
	typ, ok := statementTypes[req.Type]
	if !ok {
		return nil, errs.NewErrUnknownStatementType(req.Type)
	}
	sc := &sharding.Context{
		SQL:      req.SQL,
		Type:     typ,
		Tables:   make([]sharding.LogicTable, 0, len(req.Tables)),
		Bindings: make(map[string]map[string][]sharding.Value, len(req.Bindings)),
	}
	for _, name := range req.Tables {
		t, ok := h.tables[name]
		if !ok {
			return nil, errs.NewErrInvalidTable(name, "逻辑表不存在")
		}
		sc.Tables = append(sc.Tables, t)
	}
	for table, columns := range req.Bindings {
		cols := make(map[string][]sharding.Value, len(columns))
		for col, vals := range columns {
			switch len(vals) {
			case 0:
			case 1:
				cols[col] = []sharding.Value{{Column: col, Op: operator.OpEQ, Val: valueOf(vals[0])}}
			default:
				in := make([]any, 0, len(vals))
				for _, v := range vals {
					in = append(in, valueOf(v))
				}
				cols[col] = []sharding.Value{{Column: col, Op: operator.OpIn, Vals: in}}
			}
		}
		sc.Bindings[table] = cols
	}
	return sc, nil
}

// valueOf 整数按照整数分片，其它的按照字符串分片
func valueOf(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		return val.String()
	case string:
		return val
	default:
		return v
	}
}
