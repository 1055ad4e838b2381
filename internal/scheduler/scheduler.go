// Package scheduler 月度轮班生成引擎
//
// 引擎是纯计算：输入在岗名册快照、当月已有记录（请假标记）与上月记录，
// 输出整月每人每天的班次计划，不做任何 I/O。持久化由 service 层负责。
//
// 生成分两个阶段：
//  1. 轮转：每名员工持有一个轮转游标，按 A → OFF → C → OFF → B 交接，
//     周休日输出 OFF 并在下一个工作日切换班次；请假日保持 L；常日班员工输出 G。
//  2. 人力下限：逐日统计 A/B/C 在岗人数，低于下限时从当日 OFF 的轮转员工中
//     挑选覆盖上岗，并记录覆盖明细供审计。
package scheduler

import (
	"sort"
	"time"

	"shift-roster/internal/shift"
)

// DefaultMinManpower 每日最低在岗人数
const DefaultMinManpower = 7

// Member 参与排班的员工快照（管理员由调用方剔除）
type Member struct {
	ID        int64
	EmpNo     string
	WeeklyOff shift.Weekday
	General   bool // 常日班，不参与轮转
}

// Record 已持久化的一条排班记录
type Record struct {
	EmployeeID int64
	Date       string
	Shift      shift.Code
}

// Options 生成参数
type Options struct {
	MinManpower int
}

// Input 生成输入
type Input struct {
	Year     int
	Month    int
	Members  []Member
	Existing []Record // 目标月已有记录，仅其中的 L 会被保留
	History  []Record // 上月记录，用于延续轮转
	Options  Options
}

// Entry 计划中的一条班次
type Entry struct {
	EmployeeID int64
	Date       string
	Day        int
	Shift      shift.Code
}

// Override 人力下限覆盖：原本 OFF 的员工被安排上岗
type Override struct {
	EmployeeID int64
	Date       string
	Shift      shift.Code
}

// Shortfall 覆盖后仍不满足下限的日期
type Shortfall struct {
	Date     string
	Active   int
	Required int
}

// Plan 生成结果
type Plan struct {
	Year        int
	Month       int
	Days        int
	Entries     []Entry
	Overrides   []Override
	Shortfalls  []Shortfall
	DailyActive []int // 下标 day-1
}

// Generate 生成整月排班计划
func Generate(in Input) (*Plan, error) {
	if err := shift.ValidateMonth(in.Year, in.Month); err != nil {
		return nil, err
	}

	minManpower := in.Options.MinManpower
	if minManpower <= 0 {
		minManpower = DefaultMinManpower
	}

	days := shift.DaysIn(in.Year, in.Month)

	// 按 ID 排序保证结果可复现
	members := make([]Member, len(in.Members))
	copy(members, in.Members)
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

	weekdays := make([]shift.Weekday, days)
	dates := make([]string, days)
	for d := 1; d <= days; d++ {
		weekdays[d-1] = shift.WeekdayOf(shift.Day(in.Year, in.Month, d))
		dates[d-1] = shift.Date(in.Year, in.Month, d)
	}

	leaves := leaveDays(in.Existing, shift.MonthPrefix(in.Year, in.Month))
	history := historyByEmployee(in.History)
	monthStart := shift.Day(in.Year, in.Month, 1)

	// ── 阶段1: 轮转 ──
	grid := make([][]shift.Code, len(members))
	for i, m := range members {
		cur := seedCursor(m, history[m.ID])
		row := make([]shift.Code, days)
		for d := 1; d <= days; d++ {
			row[d-1] = cur.step(m, weekdays[d-1] == m.WeeklyOff, leaves[m.ID][d])
		}
		grid[i] = row
	}

	plan := &Plan{
		Year:        in.Year,
		Month:       in.Month,
		Days:        days,
		DailyActive: make([]int, days),
	}

	// ── 阶段2: 人力下限 ──
	// 无人可排时系统空转，不记录缺口
	if len(members) > 0 {
		priorRest := make([]int, len(members))
		for i, m := range members {
			priorRest[i] = daysSinceRest(history[m.ID], monthStart)
		}
		enforceFloor(plan, members, grid, dates, priorRest, minManpower)
	}

	plan.Entries = make([]Entry, 0, len(members)*days)
	for d := 1; d <= days; d++ {
		for i, m := range members {
			plan.Entries = append(plan.Entries, Entry{
				EmployeeID: m.ID,
				Date:       dates[d-1],
				Day:        d,
				Shift:      grid[i][d-1],
			})
		}
	}

	return plan, nil
}

// Count 统计计划中每种班次的数量
func (p *Plan) Count() map[shift.Code]int {
	counts := make(map[shift.Code]int)
	for _, e := range p.Entries {
		counts[e.Shift]++
	}
	return counts
}

// leaveDays 提取目标月的请假标记: employeeID → day → true
func leaveDays(existing []Record, prefix string) map[int64]map[int]bool {
	out := make(map[int64]map[int]bool)
	for _, r := range existing {
		if r.Shift != shift.L || len(r.Date) != 10 || r.Date[:7] != prefix {
			continue
		}
		t, err := shift.ParseDate(r.Date)
		if err != nil {
			continue
		}
		if out[r.EmployeeID] == nil {
			out[r.EmployeeID] = make(map[int]bool)
		}
		out[r.EmployeeID][t.Day()] = true
	}
	return out
}

// historyByEmployee 按员工分组并按日期升序排列上月记录，丢弃日期非法的记录
func historyByEmployee(records []Record) map[int64][]Record {
	sorted := make([]Record, 0, len(records))
	for _, r := range records {
		if _, err := shift.ParseDate(r.Date); err == nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	out := make(map[int64][]Record)
	for _, r := range sorted {
		out[r.EmployeeID] = append(out[r.EmployeeID], r)
	}
	return out
}

// daysSinceRest 返回上月最后一次休息（OFF/L）距本月 1 日的天数，无记录返回 never
func daysSinceRest(history []Record, monthStart time.Time) int {
	for i := len(history) - 1; i >= 0; i-- {
		if !isRest(history[i].Shift) {
			continue
		}
		t, _ := shift.ParseDate(history[i].Date)
		if days := int(monthStart.Sub(t).Hours() / 24); days > 0 {
			return days
		}
	}
	return never
}
