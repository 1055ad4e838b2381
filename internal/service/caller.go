package service

import (
	"errors"

	"shift-roster/internal/shift"
	pkgerrors "shift-roster/pkg/errors"
)

// ── 通用业务错误 ──

var (
	ErrForbidden        = errors.New("无权限执行该操作")
	ErrEmployeeNotFound = errors.New("员工不存在")
)

// Caller 调用方权限凭据，由请求层从 Token 解析后显式传入
type Caller struct {
	EmployeeID int64
	IsAdmin    bool
}

// validateMonth 校验年月并转换为字段级校验错误
func validateMonth(year, month int) error {
	if err := shift.ValidateMonth(year, month); err != nil {
		if errors.Is(err, shift.ErrInvalidYear) {
			return pkgerrors.NewValidationError("year", "年份必须为正整数")
		}
		return pkgerrors.NewValidationError("month", "月份必须在 1-12 之间")
	}
	return nil
}

// validateDate 校验 YYYY-MM-DD 日期
func validateDate(date string) error {
	if _, err := shift.ParseDate(date); err != nil {
		return pkgerrors.NewValidationError("date", "日期格式应为 YYYY-MM-DD")
	}
	return nil
}

// validateShift 校验班次代码（区分大小写）
func validateShift(code string) (shift.Code, error) {
	c, err := shift.Parse(code)
	if err != nil {
		return "", pkgerrors.NewValidationError("shift", "班次必须为 A、B、C、OFF、L、G 之一")
	}
	return c, nil
}
