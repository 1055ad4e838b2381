package errors

import (
	"errors"
	"fmt"
)

// ErrConflict 唯一约束冲突：记录已存在
var ErrConflict = errors.New("数据冲突，记录已存在")

// ErrLockTimeout 等待月份锁超时：同一月份正在生成或修改
var ErrLockTimeout = errors.New("该月份排班正在处理中，请稍后重试")

// ValidationError 输入校验失败，Field 指出出错字段
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("参数 %s 不合法: %s", e.Field, e.Reason)
}

// NewValidationError 构造字段校验错误
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AsValidation 提取校验错误
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
