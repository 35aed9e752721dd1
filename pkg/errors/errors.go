package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrInvalidTimeFormat 时间格式无效（期望 HH:MM 或 HH:MM:SS）
var ErrInvalidTimeFormat = errors.New("时间格式无效")
