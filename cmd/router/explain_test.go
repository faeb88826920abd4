package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meoying/shardrouter/config"
	"github.com/meoying/shardrouter/internal/datasource/shardingsource"
	"github.com/meoying/shardrouter/internal/readsplit"
	"github.com/meoying/shardrouter/internal/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routing = `
algorithms:
  order_hash:
    hash: {shardingKey: user_id, name: db_%d, base: 2}
partitions:
  - name: db_0
    write: {name: db_0_w}
    reads: [{name: db_0_r0}]
    readStrategy: polling
  - name: db_1
    write: {name: db_1_w}
    reads: [{name: db_1_r0}]
    readStrategy: polling
tables:
  - name: order
    sharding: {columns: [user_id], algorithm: order_hash}
  - name: order_item
    layerKey: order.item
`

func newExplainHandler(t *testing.T) *explainHandler {
	rc, err := config.ParseContent(routing)
	require.NoError(t, err)
	counters := readsplit.NewCounters()
	registry, err := rc.Registry(counters)
	require.NoError(t, err)
	algorithms, err := rc.ShardingAlgorithms()
	require.NoError(t, err)
	tables, err := rc.LogicTables(algorithms)
	require.NoError(t, err)
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds := shardingsource.New(registry, router.NewRouter(registry, router.WithLogger(l)),
		readsplit.NewRepository(counters, readsplit.WithLogger(l)), nil, shardingsource.WithLogger(l))
	return &explainHandler{ds: ds, tables: tables, logger: l}
}

func TestExplainHandler(t *testing.T) {
	testCases := []struct {
		name     string
		method   string
		body     string
		wantCode int
		wantRes  []explainUnit
	}{
		{
			name:     "按分片键查询",
			method:   http.MethodPost,
			body:     `{"type":"select","sql":"SELECT * FROM order JOIN order_item","tables":["order","order_item"],"bindings":{"order":{"user_id":[43]}}}`,
			wantCode: http.StatusOK,
			wantRes: []explainUnit{
				{Partition: "db_1", Target: "db_1_r0", Role: "read", SQL: "SELECT * FROM order JOIN order_item"},
			},
		},
		{
			name:     "分片键多个值",
			method:   http.MethodPost,
			body:     `{"type":"select","sql":"SELECT * FROM order","tables":["order"],"bindings":{"order":{"user_id":[1,2]}}}`,
			wantCode: http.StatusOK,
			wantRes: []explainUnit{
				{Partition: "db_0", Target: "db_0_r0", Role: "read", SQL: "SELECT * FROM order"},
				{Partition: "db_1", Target: "db_1_r0", Role: "read", SQL: "SELECT * FROM order"},
			},
		},
		{
			name:     "插入分片键多个值",
			method:   http.MethodPost,
			body:     `{"type":"insert","sql":"INSERT INTO order","tables":["order"],"bindings":{"order":{"user_id":[3,5]}}}`,
			wantCode: http.StatusOK,
			wantRes: []explainUnit{
				{Partition: "db_1", Target: "db_1_w", Role: "write", SQL: "INSERT INTO order"},
			},
		},
		{
			name:     "未知的语句类型",
			method:   http.MethodPost,
			body:     `{"type":"merge","sql":"MERGE INTO order","tables":["order"]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "没有语句类型",
			method:   http.MethodPost,
			body:     `{"sql":"SELECT 1","tables":["order"]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "没有分片键的更新广播",
			method:   http.MethodPost,
			body:     `{"type":"update","sql":"UPDATE order SET status = 1","tables":["order"]}`,
			wantCode: http.StatusOK,
			wantRes: []explainUnit{
				{Partition: "db_0", Target: "db_0_w", Role: "write", SQL: "UPDATE order SET status = 1"},
				{Partition: "db_1", Target: "db_1_w", Role: "write", SQL: "UPDATE order SET status = 1"},
			},
		},
		{
			name:     "插入没有分片键",
			method:   http.MethodPost,
			body:     `{"type":"insert","sql":"INSERT INTO order","tables":["order"]}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "逻辑表不存在",
			method:   http.MethodPost,
			body:     `{"type":"select","sql":"SELECT 1","tables":["user"]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "请求不是json",
			method:   http.MethodPost,
			body:     `select`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "只支持POST",
			method:   http.MethodGet,
			wantCode: http.StatusMethodNotAllowed,
		},
	}
	h := newExplainHandler(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/explain", strings.NewReader(tc.body))
			recorder := httptest.NewRecorder()
			h.ServeHTTP(recorder, req)
			assert.Equal(t, tc.wantCode, recorder.Code)
			if tc.wantCode != http.StatusOK {
				return
			}
			var res []explainUnit
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&res))
			assert.Equal(t, tc.wantRes, res)
		})
	}
}

func TestValueOf(t *testing.T) {
	assert.Equal(t, int64(42), valueOf(json.Number("42")))
	assert.Equal(t, "4.2", valueOf(json.Number("4.2")))
	assert.Equal(t, "tom", valueOf("tom"))
	assert.Equal(t, true, valueOf(true))
}
