package log

import (
	"database/sql"
	"database/sql/driver"
	"time"
)

// txWrapper 记录事务的隔离级别和持续时间，数据源的信息在 logger 上
type txWrapper struct {
	tx     driver.Tx
	logger logger
	opts   driver.TxOptions
	start  time.Time
}

func newTxWrapper(tx driver.Tx, l logger, opts driver.TxOptions) *txWrapper {
	return &txWrapper{tx: tx, logger: l, opts: opts, start: time.Now()}
}

func (t *txWrapper) Commit() error {
	return t.end("提交", t.tx.Commit())
}

func (t *txWrapper) Rollback() error {
	return t.end("回滚", t.tx.Rollback())
}

func (t *txWrapper) end(action string, err error) error {
	attrs := []any{
		"隔离级别", sql.IsolationLevel(t.opts.Isolation).String(),
		"只读", t.opts.ReadOnly,
		"耗时", time.Since(t.start),
	}
	if err != nil {
		t.logger.Error(action+"事务失败", append(attrs, "错误", err)...)
		return err
	}
	t.logger.Info("事务"+action+"成功", attrs...)
	return nil
}
