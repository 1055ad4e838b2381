package scheduler

import (
	"math"
	"sort"
	"strconv"

	"github.com/zeebo/xxh3"

	"shift-roster/internal/shift"
)

const never = math.MaxInt32

// enforceFloor 逐日补足在岗人数
//
// 候选人：当天为 OFF 的轮转员工（请假、常日班不参与）。
// 候选顺序：本月被覆盖次数少者优先 → 距上次休息（OFF/L）最久者优先 → 散列 → ID。
// 本月尚无休息时，休息间隔按 priorRest（上月最后一次休息距 1 日的天数）顺延。
// 覆盖班次：当天人数最少的班次 → 该员工最久未上的班次 → A、B、C 顺序。
func enforceFloor(plan *Plan, members []Member, grid [][]shift.Code, dates []string, priorRest []int, minManpower int) {
	overrides := make([]int, len(members))

	for d := range dates {
		counts := map[shift.Code]int{}
		active := 0
		for i := range members {
			if c := grid[i][d]; c.Active() {
				counts[c]++
				active++
			}
		}

		for active < minManpower {
			i := pickCandidate(members, grid, overrides, priorRest, d, dates[d])
			if i < 0 {
				plan.Shortfalls = append(plan.Shortfalls, Shortfall{
					Date:     dates[d],
					Active:   active,
					Required: minManpower,
				})
				break
			}

			code := pickShift(grid[i], d, counts)
			grid[i][d] = code
			counts[code]++
			active++
			overrides[i]++

			plan.Overrides = append(plan.Overrides, Override{
				EmployeeID: members[i].ID,
				Date:       dates[d],
				Shift:      code,
			})
		}

		plan.DailyActive[d] = active
	}
}

func pickCandidate(members []Member, grid [][]shift.Code, overrides, priorRest []int, d int, date string) int {
	type candidate struct {
		index int
		gap   int
		hash  uint64
	}

	var candidates []candidate
	for i, m := range members {
		if m.General || grid[i][d] != shift.OFF {
			continue
		}
		gap := sinceLast(grid[i], d, isRest)
		if gap == never && priorRest[i] != never {
			gap = d + priorRest[i]
		}
		candidates = append(candidates, candidate{
			index: i,
			gap:   gap,
			hash:  xxh3.HashString(strconv.FormatInt(m.ID, 10) + ":" + date),
		})
	}
	if len(candidates) == 0 {
		return -1
	}

	sort.Slice(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		if overrides[ca.index] != overrides[cb.index] {
			return overrides[ca.index] < overrides[cb.index]
		}
		if ca.gap != cb.gap {
			return ca.gap > cb.gap
		}
		if ca.hash != cb.hash {
			return ca.hash < cb.hash
		}
		return members[ca.index].ID < members[cb.index].ID
	})

	return candidates[0].index
}

func pickShift(row []shift.Code, d int, counts map[shift.Code]int) shift.Code {
	// A、B 排在 C 之前，平局时优先充实 A/B 班
	options := []shift.Code{shift.A, shift.B, shift.C}
	sort.SliceStable(options, func(a, b int) bool {
		oa, ob := options[a], options[b]
		if counts[oa] != counts[ob] {
			return counts[oa] < counts[ob]
		}
		ga := sinceLast(row, d, func(c shift.Code) bool { return c == oa })
		gb := sinceLast(row, d, func(c shift.Code) bool { return c == ob })
		return ga > gb
	})
	return options[0]
}

// sinceLast 返回 d 之前最近一次满足 match 的天数距离，从未出现返回 never
func sinceLast(row []shift.Code, d int, match func(shift.Code) bool) int {
	for j := d - 1; j >= 0; j-- {
		if match(row[j]) {
			return d - j
		}
	}
	return never
}

func isRest(c shift.Code) bool {
	return c == shift.OFF || c == shift.L
}
