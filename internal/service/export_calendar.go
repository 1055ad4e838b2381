package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shift-roster/internal/shift"
)

// ── iCalendar 导出 ──────────────────────────────────────────
//
// 职责：将单个员工的月度排班转为标准 iCalendar (RFC 5545)，供手机日历订阅导入。
//
//   - 每个 A/B/C/G 工作日生成一个全天 VEVENT，OFF、L 不生成
//   - UID 由 工号+日期 组成，重复导入时日历客户端按 UID 覆盖而非新增
//   - 非管理员只能导出本人日历
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//shift-roster//roster calendar//ZH"

// shiftLabels 班次在日历中显示的名称
var shiftLabels = map[shift.Code]string{
	shift.A: "早班",
	shift.B: "中班",
	shift.C: "夜班",
	shift.G: "常日班",
}

// ExportCalendar 导出员工月度排班日历；employeeID 为 0 时导出调用方本人
func (s *exportService) ExportCalendar(ctx context.Context, caller Caller, year, month int, employeeID int64) (*bytes.Buffer, string, error) {
	if employeeID == 0 {
		employeeID = caller.EmployeeID
	}
	if !caller.IsAdmin && employeeID != caller.EmployeeID {
		return nil, "", ErrForbidden
	}
	if err := validateMonth(year, month); err != nil {
		return nil, "", err
	}

	employee, err := s.repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrEmployeeNotFound
		}
		s.logger.Error("查询员工失败", zap.Int64("employee_id", employeeID), zap.Error(err))
		return nil, "", err
	}

	assignments, err := s.repo.Assignment.ListByMonth(ctx, year, month)
	if err != nil {
		s.logger.Error("查询当月排班失败", zap.Error(err))
		return nil, "", err
	}

	monthName := shift.MonthPrefix(year, month)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName(fmt.Sprintf("%s %s 排班", employee.Name, monthName))

	found := false
	for _, a := range assignments {
		if a.EmployeeID != employeeID {
			continue
		}
		found = true

		code := shift.Code(a.Shift)
		label, ok := shiftLabels[code]
		if !ok {
			continue
		}
		day, err := shift.ParseDate(a.Date)
		if err != nil {
			continue
		}

		stamp := a.UpdatedAt.UTC()
		if stamp.IsZero() {
			stamp = time.Now().UTC()
		}

		event := cal.AddEvent(fmt.Sprintf("%s-%s@shift-roster", employee.EmpNo, a.Date))
		event.SetDtStampTime(stamp)
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(fmt.Sprintf("%s %s", code, label))
		event.SetDescription(fmt.Sprintf("%s %s %s", employee.EmpNo, employee.Name, employee.Section))
	}
	if !found {
		return nil, "", ErrExportNoAssignments
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("roster_%s_%s.ics", employee.EmpNo, monthName)
	return buf, filename, nil
}
