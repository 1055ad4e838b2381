// Package metrics 排班服务指标采集
package metrics

import "time"

// Recorder 指标记录接口，service 与中间件依赖此接口
type Recorder interface {
	// ObserveGeneration 记录一次整月生成：耗时、写入条数、覆盖次数、缺口天数
	ObserveGeneration(result string, duration time.Duration, written, overrides, shortfalls int)
	// IncScheduleUpdate 单日修改计数，kind 为 leave_request | admin_modify
	IncScheduleUpdate(kind string)
	// IncLockContention 等待月份锁超时计数
	IncLockContention()
	// ObserveHTTPRequest HTTP 请求耗时
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}

// Nop 丢弃全部指标
type Nop struct{}

var _ Recorder = Nop{}

// NewNop 创建空实现（测试或关闭指标时使用）
func NewNop() Nop { return Nop{} }

func (Nop) ObserveGeneration(string, time.Duration, int, int, int) {}
func (Nop) IncScheduleUpdate(string) {}
func (Nop) IncLockContention() {}
func (Nop) ObserveHTTPRequest(string, string, int, time.Duration) {}
