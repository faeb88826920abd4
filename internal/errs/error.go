package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConfig 所有配置错误的根，配置错误在启动或者第一次使用时暴露，不重试
	ErrConfig = errors.New("配置错误")
	// ErrRouting 路由失败，不可重试
	ErrRouting = errors.New("路由失败")
	// ErrExecution 物理语句执行失败
	ErrExecution = errors.New("执行失败")

	ErrEmptyReadTargets    = fmt.Errorf("%w: 读库列表为空", ErrConfig)
	ErrNoWriteTarget       = fmt.Errorf("%w: 分区没有写库", ErrConfig)
	ErrStatementClosed     = errors.New("语句已经关闭")
	ErrSessionClosed       = errors.New("会话已经关闭")
	ErrPartitionNameAbsent = fmt.Errorf("%w: 分区名字为空", ErrConfig)
)

func NewErrDuplicatePartition(name string) error {
	return fmt.Errorf("%w: 分区 [%s] 重复注册", ErrConfig, name)
}

func NewErrEmptyPartition(name string) error {
	return fmt.Errorf("%w: 分区 [%s] 既没有写库也没有读库", ErrConfig, name)
}

func NewErrDuplicateDefault(old, cur string) error {
	return fmt.Errorf("%w: 默认分区只能有一个, [%s] 和 [%s] 冲突", ErrConfig, old, cur)
}

func NewErrDuplicateWriteTarget(partition string) error {
	return fmt.Errorf("%w: 分区 [%s] 写库重复设置", ErrConfig, partition)
}

func NewErrDuplicateReadTargets(partition string) error {
	return fmt.Errorf("%w: 分区 [%s] 读库重复设置", ErrConfig, partition)
}

func NewErrDuplicateTarget(partition, target string) error {
	return fmt.Errorf("%w: 分区 [%s] 中物理库 [%s] 重复", ErrConfig, partition, target)
}

func NewErrUnknownReadStrategy(name string) error {
	return fmt.Errorf("%w: 不支持 [%s] 读策略", ErrConfig, name)
}

func NewErrDuplicateReadStrategy(name string) error {
	return fmt.Errorf("%w: 读策略 [%s] 重复注册", ErrConfig, name)
}

func NewErrUnknownAlgorithm(name string) error {
	return fmt.Errorf("%w: 未发现分片算法 [%s]", ErrConfig, name)
}

func NewErrDuplicateAlgorithm(name string) error {
	return fmt.Errorf("%w: 分片算法 [%s] 重复注册", ErrConfig, name)
}

func NewErrNotFoundPartition(name string) error {
	return fmt.Errorf("%w: 未发现分区 [%s]", ErrConfig, name)
}

func NewErrNotFoundTarget(name string) error {
	return fmt.Errorf("%w: 未发现物理库 [%s]", ErrConfig, name)
}

// RoutingError 路由失败，带上逻辑 SQL 方便定位
type RoutingError struct {
	SQL    string
	Reason string
}

func NewRoutingError(sql, reason string) *RoutingError {
	return &RoutingError{SQL: sql, Reason: reason}
}

func (r *RoutingError) Error() string {
	return fmt.Sprintf("%s: %s, sql: %s", ErrRouting.Error(), r.Reason, r.SQL)
}

func (r *RoutingError) Unwrap() error {
	return ErrRouting
}

// ExecutionError 某个物理库执行失败
type ExecutionError struct {
	Partition string
	Target    string
	SQL       string
	Err       error
}

func NewExecutionError(partition, target, sql string, err error) *ExecutionError {
	return &ExecutionError{Partition: partition, Target: target, SQL: sql, Err: err}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: 分区 [%s] 物理库 [%s] sql: %s: %v", ErrExecution.Error(), e.Partition, e.Target, e.SQL, e.Err)
}

// Unwrap 同时暴露驱动的原始错误和 ErrExecution
func (e *ExecutionError) Unwrap() []error {
	return []error{ErrExecution, e.Err}
}

func NewErrDuplicateTable(name string) error {
	return fmt.Errorf("%w: 逻辑表 [%s] 重复配置", ErrConfig, name)
}

func NewErrDuplicateLayerKey(layerKey, table, other string) error {
	return fmt.Errorf("%w: 逻辑表 [%s] 和 [%s] 的 layerKey [%s] 相同", ErrConfig, table, other, layerKey)
}

func NewErrInvalidAlgorithm(name, reason string) error {
	return fmt.Errorf("%w: 分片算法 [%s] 配置非法: %s", ErrConfig, name, reason)
}

func NewErrInvalidTable(name, reason string) error {
	return fmt.Errorf("%w: 逻辑表 [%s] 配置非法: %s", ErrConfig, name, reason)
}

func NewErrUnknownExecutorMode(mode string) error {
	return fmt.Errorf("%w: 未知的执行模式 [%s]", ErrConfig, mode)
}

func NewErrUnknownStatementType(typ string) error {
	return fmt.Errorf("%w: 未知的语句类型 [%s]", ErrRouting, typ)
}
