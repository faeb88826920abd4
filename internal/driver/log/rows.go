package log

import (
	"database/sql/driver"
	"errors"
	"io"
	"reflect"
)

type rowsWrapper struct {
	rows   driver.Rows
	logger logger
}

func (r *rowsWrapper) Columns() []string {
	return r.rows.Columns()
}

func (r *rowsWrapper) Next(dest []driver.Value) error {
	err := r.rows.Next(dest)
	if err != nil && !errors.Is(err, io.EOF) {
		r.logger.Error("读取下一行失败", "错误", err)
	}
	return err
}

func (r *rowsWrapper) HasNextResultSet() bool {
	if rs, ok := r.rows.(driver.RowsNextResultSet); ok {
		return rs.HasNextResultSet()
	}
	return false
}

func (r *rowsWrapper) NextResultSet() error {
	rs, ok := r.rows.(driver.RowsNextResultSet)
	if !ok {
		return io.EOF
	}
	err := rs.NextResultSet()
	if err != nil && !errors.Is(err, io.EOF) {
		r.logger.Error("读取下一个结果集失败", "错误", err)
	}
	return err
}

func (r *rowsWrapper) ColumnTypeScanType(index int) reflect.Type {
	if ct, ok := r.rows.(driver.RowsColumnTypeScanType); ok {
		return ct.ColumnTypeScanType(index)
	}
	return reflect.TypeOf(new(any)).Elem()
}

func (r *rowsWrapper) ColumnTypeDatabaseTypeName(index int) string {
	if ct, ok := r.rows.(driver.RowsColumnTypeDatabaseTypeName); ok {
		return ct.ColumnTypeDatabaseTypeName(index)
	}
	return ""
}

func (r *rowsWrapper) Close() error {
	err := r.rows.Close()
	if err != nil {
		r.logger.Error("关闭结果集失败", "错误", err)
		return err
	}
	return nil
}
