package shift

import (
	"errors"
	"fmt"
	"time"
)

// Code 班次代码（对外契约，大小写与取值不可变更）
type Code string

const (
	A   Code = "A"   // 早班
	B   Code = "B"   // 中班
	C   Code = "C"   // 夜班
	OFF Code = "OFF" // 周休
	L   Code = "L"   // 请假
	G   Code = "G"   // 常日班（不参与轮转）
)

var (
	ErrUnknownCode    = errors.New("未知的班次代码")
	ErrUnknownWeekday = errors.New("未知的周休日代码")
	ErrInvalidDate    = errors.New("日期格式必须为 YYYY-MM-DD")
	ErrInvalidMonth   = errors.New("月份必须在 1-12 之间")
	ErrInvalidYear    = errors.New("年份必须为正整数")
)

// Working 轮转使用的工作班次，顺序即交接顺序 A → C → B
var Working = []Code{A, C, B}

// Parse 解析班次代码（严格匹配，不做大小写转换）
func Parse(s string) (Code, error) {
	switch c := Code(s); c {
	case A, B, C, OFF, L, G:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCode, s)
}

// Active 是否计入每日在岗人数（仅 A/B/C）
func (c Code) Active() bool {
	return c == A || c == B || c == C
}

func (c Code) String() string { return string(c) }

// ── 周休日 ──

// Weekday 周休日代码 SUN..SAT
type Weekday string

var weekdays = [...]Weekday{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// ParseWeekday 解析周休日代码
func ParseWeekday(s string) (Weekday, error) {
	for _, w := range weekdays {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
}

// WeekdayOf 返回日期对应的周休日代码
func WeekdayOf(t time.Time) Weekday {
	return weekdays[t.Weekday()]
}

// ── 日期 ──

const dateLayout = "2006-01-02"

// ValidateMonth 校验年月参数
func ValidateMonth(year, month int) error {
	if year <= 0 || year > 9999 {
		return ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// DaysIn 返回指定年月的天数（闰年感知）
func DaysIn(year, month int) int {
	// 下月第 0 天即本月最后一天
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Day 返回指定日期的 UTC 零点时间
func Day(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Date 格式化为 YYYY-MM-DD
func Date(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// MonthPrefix 返回 YYYY-MM，用于按月前缀匹配
func MonthPrefix(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseDate 严格解析 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(dateLayout) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// PrevMonth 返回上一个月
func PrevMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}
