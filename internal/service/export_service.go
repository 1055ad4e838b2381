package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"shift-roster/internal/repository"
	"shift-roster/internal/shift"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoAssignments = errors.New("该月份暂无排班记录")
	ErrExportGenerateFail  = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
// Excel 格式：单 Sheet，员工为行、日期为列，末行为每日在岗（A/B/C）人数。
// 日历格式：单个员工的 iCalendar，每个工作日一个全天事件。
type ExportService interface {
	ExportMonth(ctx context.Context, caller Caller, year, month int) (*bytes.Buffer, string, error)
	ExportCalendar(ctx context.Context, caller Caller, year, month int, employeeID int64) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// shiftColors 班次单元格底色
var shiftColors = map[shift.Code]string{
	shift.A:   "#C6EFCE",
	shift.B:   "#FFEB9C",
	shift.C:   "#BDD7EE",
	shift.OFF: "#D9D9D9",
	shift.L:   "#F8CBAD",
	shift.G:   "#E2EFDA",
}

// 固定列：工号 | 姓名 | 科室 | 周休
const fixedCols = 4

// ═══════════════════════════════════════════════════════════
// ExportMonth：导出月度排班为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行标题，第 2 行表头（日期），第 3 行星期
//   - 之后每名员工一行，单元格为班次代码，无记录为 "-"
//   - 最后一行为每日在岗人数

func (s *exportService) ExportMonth(ctx context.Context, caller Caller, year, month int) (*bytes.Buffer, string, error) {
	if !caller.IsAdmin {
		return nil, "", ErrForbidden
	}
	if err := validateMonth(year, month); err != nil {
		return nil, "", err
	}

	// 1. 查询当月记录
	assignments, err := s.repo.Assignment.ListByMonth(ctx, year, month)
	if err != nil {
		s.logger.Error("查询当月排班失败", zap.Error(err))
		return nil, "", err
	}
	if len(assignments) == 0 {
		return nil, "", ErrExportNoAssignments
	}

	// 2. 查询名册
	employees, err := s.repo.Employee.List(ctx)
	if err != nil {
		s.logger.Error("查询员工名册失败", zap.Error(err))
		return nil, "", err
	}

	// 3. 构建索引: employeeID → day → code
	days := shift.DaysIn(year, month)
	grid := make(map[int64][]shift.Code)
	for _, a := range assignments {
		t, err := shift.ParseDate(a.Date)
		if err != nil {
			continue
		}
		if grid[a.EmployeeID] == nil {
			grid[a.EmployeeID] = make([]shift.Code, days)
		}
		grid[a.EmployeeID][t.Day()-1] = shift.Code(a.Shift)
	}

	// 4. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := shift.MonthPrefix(year, month)
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 22)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 6)
	f.SetColWidth(sheetName, colName(fixedCols), colName(fixedCols+days-1), 5)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	shiftStyles := make(map[shift.Code]int, len(shiftColors))
	for code, color := range shiftColors {
		st, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		shiftStyles[code] = st
	}

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s 排班表", sheetName))
	f.MergeCell(sheetName, "A1", cell(colName(fixedCols+days-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, title := range []string{"工号", "姓名", "科室", "周休"} {
		f.SetCellValue(sheetName, cell(colName(i), 2), title)
	}
	for d := 1; d <= days; d++ {
		col := colName(fixedCols + d - 1)
		f.SetCellValue(sheetName, cell(col, 2), d)
		f.SetCellValue(sheetName, cell(col, 3), string(shift.WeekdayOf(shift.Day(year, month, d))))
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(fixedCols+days-1), 3), headerStyle)

	// 数据行：名册顺序，管理员仅在有记录时出现
	active := make([]int, days)
	row := 4
	for _, e := range employees {
		codes, ok := grid[e.ID]
		if !ok && e.IsAdmin {
			continue
		}
		f.SetCellValue(sheetName, cell("A", row), e.EmpNo)
		f.SetCellValue(sheetName, cell("B", row), e.Name)
		f.SetCellValue(sheetName, cell("C", row), e.Section)
		f.SetCellValue(sheetName, cell("D", row), e.WeeklyOff)

		for d := 0; d < days; d++ {
			ref := cell(colName(fixedCols+d), row)
			var code shift.Code
			if codes != nil {
				code = codes[d]
			}
			if code == "" {
				f.SetCellValue(sheetName, ref, "-")
				continue
			}
			f.SetCellValue(sheetName, ref, string(code))
			if st, ok := shiftStyles[code]; ok {
				f.SetCellStyle(sheetName, ref, ref, st)
			}
			if code.Active() {
				active[d]++
			}
		}
		row++
	}

	// 在岗人数行
	f.SetCellValue(sheetName, cell("A", row), "在岗人数")
	f.MergeCell(sheetName, cell("A", row), cell("D", row))
	for d := 0; d < days; d++ {
		f.SetCellValue(sheetName, cell(colName(fixedCols+d), row), active[d])
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(fixedCols+days-1), row), headerStyle)

	// 冻结表头与固定列
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      fixedCols,
		YSplit:      3,
		TopLeftCell: cell(colName(fixedCols), 4),
		ActivePane:  "bottomRight",
	})

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("roster_%s.xlsx", sheetName)
	return buf, filename, nil
}

// ── 辅助函数 ──

// colName 0 起始列号转列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
