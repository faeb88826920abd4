package log

import "database/sql/driver"

type resultWrapper struct {
	result driver.Result
	logger logger
}

func (r *resultWrapper) LastInsertId() (int64, error) {
	id, err := r.result.LastInsertId()
	if err != nil {
		r.logger.Error("获取 LastInsertId 失败", "错误", err)
		return 0, err
	}
	return id, nil
}

func (r *resultWrapper) RowsAffected() (int64, error) {
	n, err := r.result.RowsAffected()
	if err != nil {
		r.logger.Error("获取 RowsAffected 失败", "错误", err)
		return 0, err
	}
	return n, nil
}
