package dto

// ── 员工模块 DTO ──

// EmployeeResponse 员工信息响应（不含凭证）
type EmployeeResponse struct {
	ID           int64  `json:"id"`
	EmpNo        string `json:"emp_no"`
	Name         string `json:"name"`
	Section      string `json:"section"`
	WeeklyOff    string `json:"weekly_off"`
	IsAdmin      bool   `json:"is_admin"`
	GeneralShift bool   `json:"general_shift"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// [自证通过] internal/dto/employee.go
