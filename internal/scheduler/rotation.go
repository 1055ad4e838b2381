package scheduler

import (
	"github.com/zeebo/xxh3"

	"shift-roster/internal/shift"
)

// cursor 单个员工的轮转游标
//
// idx 指向 shift.Working 中的当前工作班次；handover 表示已经过一次周休，
// 下一个工作日需要交接到下一班次。
type cursor struct {
	idx      int
	handover bool
}

// step 计算当天班次并推进游标
func (c *cursor) step(m Member, weeklyOff, onLeave bool) shift.Code {
	switch {
	case onLeave:
		// 周休恰逢请假，交接照常发生
		if weeklyOff {
			c.handover = true
		}
		return shift.L
	case m.General:
		if weeklyOff {
			return shift.OFF
		}
		return shift.G
	case weeklyOff:
		c.handover = true
		return shift.OFF
	}

	if c.handover {
		c.idx = (c.idx + 1) % len(shift.Working)
		c.handover = false
	}
	return shift.Working[c.idx]
}

// seedCursor 用上月最后一个工作班次延续轮转，避免月初重置
// 周休日被人力下限覆盖上岗的记录按 OFF 处理，与月内覆盖不推进游标一致
// 无历史时按工号散列错开起始班次，使 A/C/B 人数均衡
func seedCursor(m Member, history []Record) cursor {
	pendingOff := false
	for i := len(history) - 1; i >= 0; i-- {
		r := history[i]
		switch r.Shift {
		case shift.L, shift.G:
			continue
		case shift.OFF:
			pendingOff = true
			continue
		}
		if onWeeklyOff(m, r.Date) {
			pendingOff = true
			continue
		}
		if idx := workingIndex(r.Shift); idx >= 0 {
			return cursor{idx: idx, handover: pendingOff}
		}
	}
	return cursor{idx: initialPhase(m.EmpNo)}
}

func onWeeklyOff(m Member, date string) bool {
	t, err := shift.ParseDate(date)
	if err != nil {
		return false
	}
	return shift.WeekdayOf(t) == m.WeeklyOff
}

func initialPhase(empNo string) int {
	return int(xxh3.HashString(empNo) % uint64(len(shift.Working)))
}

func workingIndex(c shift.Code) int {
	for i, w := range shift.Working {
		if w == c {
			return i
		}
	}
	return -1
}
