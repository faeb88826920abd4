package statement

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/metrics"
	"github.com/meoying/shardrouter/internal/partition"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mu    sync.Mutex
	dbs   map[string]*sql.DB
	conns []*sql.Conn
	calls map[string]int
}

func newMockProvider(t *testing.T, names ...string) (*mockProvider, map[string]sqlmock.Sqlmock) {
	p := &mockProvider{
		dbs:   make(map[string]*sql.DB, len(names)),
		calls: make(map[string]int, len(names)),
	}
	mocks := make(map[string]sqlmock.Sqlmock, len(names))
	for _, name := range names {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		p.dbs[name] = db
		mocks[name] = mock
	}
	t.Cleanup(func() {
		for _, c := range p.conns {
			_ = c.Close()
		}
		for _, db := range p.dbs {
			_ = db.Close()
		}
	})
	return p, mocks
}

func (p *mockProvider) Conn(ctx context.Context, target string) (*sql.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	db, ok := p.dbs[target]
	if !ok {
		return nil, errs.NewErrNotFoundTarget(target)
	}
	c, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	p.calls[target]++
	p.conns = append(p.conns, c)
	return c, nil
}

func unitOf(query, target string, args ...any) Unit {
	return Unit{
		SQL:  query,
		Args: args,
		Target: Target{
			Partition: "p_" + target,
			Name:      target,
			Role:      partition.RoleWrite,
		},
	}
}

func TestStatement_ExecDeduplicate(t *testing.T) {
	testCases := []struct {
		name string
		mode Mode
	}{
		{name: "并发执行", mode: Parallel},
		{name: "顺序执行", mode: Sequential},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			provider, mocks := newMockProvider(t, "t0", "t1")
			query := "UPDATE `order` SET `status` = 1"
			mocks["t0"].ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 2))
			mocks["t1"].ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 3))

			s := New(provider, WithExecutor(NewExecutor(tc.mode)))
			res, err := s.Exec(context.Background(), []Unit{
				unitOf(query, "t0"),
				unitOf(query, "t0"),
				unitOf(query, "t1"),
			})
			require.NoError(t, err)
			require.Len(t, res, 2)
			affected := make([]int64, 0, len(res))
			for _, r := range res {
				n, err := r.RowsAffected()
				require.NoError(t, err)
				affected = append(affected, n)
			}
			assert.Equal(t, []int64{2, 3}, affected)
			assert.Len(t, s.Routed(), 2)
			assert.Equal(t, 1, provider.calls["t0"])
			assert.Equal(t, 1, provider.calls["t1"])
			for _, m := range mocks {
				assert.NoError(t, m.ExpectationsWereMet())
			}
		})
	}
}

func TestStatement_Query(t *testing.T) {
	provider, mocks := newMockProvider(t, "t0", "t1")
	query := "SELECT `id` FROM `order` WHERE `uid` = ?"
	mocks["t0"].ExpectQuery(query).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mocks["t1"].ExpectQuery(query).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))

	s := New(provider)
	rowsList, err := s.Query(context.Background(), []Unit{
		unitOf(query, "t0", 1),
		unitOf(query, "t1", 1),
	})
	require.NoError(t, err)
	require.Len(t, rowsList, 2)
	assert.Equal(t, rowsList, s.ResultSets())

	var ids []int
	for _, rows := range rowsList {
		for rows.Next() {
			var id int
			require.NoError(t, rows.Scan(&id))
			ids = append(ids, id)
		}
		require.NoError(t, rows.Err())
	}
	assert.Equal(t, []int{10, 11, 12}, ids)
	require.NoError(t, s.Close())
	for _, m := range mocks {
		assert.NoError(t, m.ExpectationsWereMet())
	}
}

func TestStatement_QueryTwice(t *testing.T) {
	provider, mocks := newMockProvider(t, "t0")
	query := "SELECT `id` FROM `order`"
	mocks["t0"].ExpectQuery(query).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mocks["t0"].ExpectQuery(query).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	s := New(provider)
	units := []Unit{unitOf(query, "t0")}
	first, err := s.Query(context.Background(), units)
	require.NoError(t, err)
	// 第一次的结果集没有读完就再次执行
	second, err := s.Query(context.Background(), units)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, provider.calls["t0"])
	assert.False(t, first[0].Next())
	assert.Equal(t, second, s.ResultSets())
	require.NoError(t, s.Close())

	closed := make(chan error, len(provider.conns))
	for _, c := range provider.conns {
		go func(c *sql.Conn) {
			closed <- c.Close()
		}(c)
	}
	for range provider.conns {
		select {
		case err = <-closed:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("关闭语句之后连接仍然被结果集占用")
		}
	}
	assert.NoError(t, mocks["t0"].ExpectationsWereMet())
}

func TestStatement_QueryFailed(t *testing.T) {
	driverErr := errors.New("mock: 查询超时")
	provider, mocks := newMockProvider(t, "t0", "t1")
	query := "SELECT `id` FROM `order`"
	mocks["t0"].ExpectQuery(query).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mocks["t1"].ExpectQuery(query).WillReturnError(driverErr)

	s := New(provider, WithExecutor(NewExecutor(Parallel)))
	rowsList, err := s.Query(context.Background(), []Unit{
		unitOf(query, "t0"),
		unitOf(query, "t1"),
	})
	assert.Nil(t, rowsList)
	assert.ErrorIs(t, err, errs.ErrExecution)
	assert.ErrorIs(t, err, driverErr)
	// 失败的调用不留下任何结果集
	assert.Empty(t, s.ResultSets())
	for _, h := range s.Routed() {
		assert.Nil(t, h.ResultSet())
	}
	require.NoError(t, s.Close())
	for _, m := range mocks {
		assert.NoError(t, m.ExpectationsWereMet())
	}
}

func TestStatement_ExecFailed(t *testing.T) {
	driverErr := errors.New("mock: 连接被重置")
	testCases := []struct {
		name string
		mode Mode
		// t0 是否执行
		t0Executed bool
	}{
		{name: "并发执行", mode: Parallel, t0Executed: true},
		{name: "顺序执行", mode: Sequential},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			provider, mocks := newMockProvider(t, "t0", "t1")
			query := "DELETE FROM `order`"
			mocks["t1"].ExpectExec(query).WillReturnError(driverErr)
			if tc.t0Executed {
				mocks["t0"].ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 1))
			}

			s := New(provider, WithExecutor(NewExecutor(tc.mode)))
			res, err := s.Exec(context.Background(), []Unit{
				unitOf(query, "t1"),
				unitOf(query, "t0"),
			})
			assert.Nil(t, res)
			assert.ErrorIs(t, err, errs.ErrExecution)
			assert.ErrorIs(t, err, driverErr)
			var execErr *errs.ExecutionError
			require.True(t, errors.As(err, &execErr))
			assert.Equal(t, "t1", execErr.Target)
			assert.Equal(t, "p_t1", execErr.Partition)
			assert.Equal(t, query, execErr.SQL)
			for _, m := range mocks {
				assert.NoError(t, m.ExpectationsWereMet())
			}
		})
	}
}

func TestStatement_ConnFailed(t *testing.T) {
	provider, _ := newMockProvider(t, "t0")
	s := New(provider)
	_, err := s.Exec(context.Background(), []Unit{unitOf("DELETE FROM `order`", "t9")})
	assert.ErrorIs(t, err, errs.ErrExecution)
	assert.ErrorIs(t, err, errs.ErrConfig)
	assert.Empty(t, s.Routed())
}

func TestStatement_Prepared(t *testing.T) {
	provider, mocks := newMockProvider(t, "t0")
	query := "UPDATE `order` SET `status` = ? WHERE `id` = ?"
	prep := mocks["t0"].ExpectPrepare(query)
	prep.ExpectExec().WithArgs(2, 10).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(2, 10).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.WillBeClosed()

	s := New(provider, WithPrepared())
	units := []Unit{unitOf(query, "t0", 2, 10)}
	_, err := s.Exec(context.Background(), units)
	require.NoError(t, err)
	// 第二次执行复用缓存中的预编译语句
	_, err = s.Exec(context.Background(), units)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls["t0"])

	require.NoError(t, s.Close())
	assert.NoError(t, mocks["t0"].ExpectationsWereMet())
}

func TestStatement_Cache(t *testing.T) {
	provider, _ := newMockProvider(t, "t0", "t1")
	s := New(provider)
	ctx := context.Background()
	units := []Unit{
		unitOf("SELECT 1", "t1"),
		unitOf("SELECT 1", "t0"),
		unitOf("SELECT 2", "t0"),
		unitOf("SELECT 1", "t1"),
	}
	first, err := s.Handles(ctx, units)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, first, s.Routed())
	targets := make([]string, 0, len(first))
	for _, h := range first {
		targets = append(targets, h.Target().Name+":"+h.SQL())
	}
	assert.Equal(t, []string{"t1:SELECT 1", "t0:SELECT 1", "t0:SELECT 2"}, targets)

	second, err := s.Handles(ctx, units)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, provider.calls["t0"])
	assert.Equal(t, 1, provider.calls["t1"])

	s.ClearRouted()
	assert.Empty(t, s.Routed())
	third, err := s.Handles(ctx, units[:1])
	require.NoError(t, err)
	assert.NotSame(t, first[0], third[0])
	assert.Equal(t, 2, provider.calls["t1"])
}

func TestStatement_Close(t *testing.T) {
	provider, _ := newMockProvider(t, "t0")
	s := New(provider)
	_, err := s.Handles(context.Background(), []Unit{unitOf("SELECT 1", "t0")})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Handles(context.Background(), []Unit{unitOf("SELECT 1", "t0")})
	assert.ErrorIs(t, err, errs.ErrStatementClosed)
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, keyOf("SELECT 1", "t0"), keyOf("SELECT 1", "t0"))
	assert.NotEqual(t, keyOf("SELECT 1", "t0"), keyOf("SELECT 1", "t1"))
	assert.NotEqual(t, keyOf("ab", "c"), keyOf("a", "bc"))
}

func TestExecutor_Metrics(t *testing.T) {
	provider, mocks := newMockProvider(t, "t0", "t1")
	query := "DELETE FROM `order`"
	mocks["t0"].ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 1))
	mocks["t1"].ExpectExec(query).WillReturnError(errors.New("mock: 磁盘已满"))

	m := metrics.New(nil)
	s := New(provider, WithExecutor(NewExecutor(Parallel, WithLimit(1), WithExecutorMetrics(m))))
	_, err := s.Exec(context.Background(), []Unit{unitOf(query, "t0"), unitOf(query, "t1")})
	assert.ErrorIs(t, err, errs.ErrExecution)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecFailures.WithLabelValues("p_t1", "t1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ExecFailures.WithLabelValues("p_t0", "t0")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FanOut))
}
