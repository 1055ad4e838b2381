package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder 基于 Prometheus 的 Recorder 实现
// 指标在首次使用时注册，同一实例只注册一次
type PrometheusRecorder struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	assignmentsWritten prometheus.Counter
	floorOverrides     prometheus.Counter
	shortfallDays      prometheus.Counter
	scheduleUpdates    *prometheus.CounterVec
	lockContention     prometheus.Counter
	httpDuration       *prometheus.HistogramVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheus 创建 Prometheus 指标记录器
// reg 为空时使用 prometheus.DefaultRegisterer；namespace 为空时使用 shift_roster
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "shift_roster"
	}
	return &PrometheusRecorder{reg: reg, namespace: namespace}
}

func (p *PrometheusRecorder) ensureRegistered() {
	p.once.Do(func() {
		p.generations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "schedule",
			Name:      "generations_total",
			Help:      "Monthly schedule generation runs by result (success, failure).",
		}, []string{"result"})
		p.generationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "schedule",
			Name:      "generation_duration_seconds",
			Help:      "Duration of monthly schedule generation including persistence.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms .. ~5s
		})
		p.assignmentsWritten = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "schedule",
			Name:      "assignments_written_total",
			Help:      "Assignments written by generation runs.",
		})
		p.floorOverrides = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "schedule",
			Name:      "floor_overrides_total",
			Help:      "Weekly-off days overridden to satisfy the manpower floor.",
		})
		p.shortfallDays = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "schedule",
			Name:      "shortfall_days_total",
			Help:      "Days left below the manpower floor after overrides.",
		})
		p.scheduleUpdates = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "schedule",
			Name:      "updates_total",
			Help:      "Single-day assignment updates by kind (leave_request, admin_modify).",
		}, []string{"kind"})
		p.lockContention = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "schedule",
			Name:      "lock_timeouts_total",
			Help:      "Month lock acquisitions that timed out.",
		})
		p.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"})

		p.reg.MustRegister(p.generations)
		p.reg.MustRegister(p.generationDuration)
		p.reg.MustRegister(p.assignmentsWritten)
		p.reg.MustRegister(p.floorOverrides)
		p.reg.MustRegister(p.shortfallDays)
		p.reg.MustRegister(p.scheduleUpdates)
		p.reg.MustRegister(p.lockContention)
		p.reg.MustRegister(p.httpDuration)
	})
}

func (p *PrometheusRecorder) ObserveGeneration(result string, duration time.Duration, written, overrides, shortfalls int) {
	p.ensureRegistered()
	p.generations.WithLabelValues(result).Inc()
	p.generationDuration.Observe(duration.Seconds())
	p.assignmentsWritten.Add(float64(written))
	p.floorOverrides.Add(float64(overrides))
	p.shortfallDays.Add(float64(shortfalls))
}

func (p *PrometheusRecorder) IncScheduleUpdate(kind string) {
	p.ensureRegistered()
	p.scheduleUpdates.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) IncLockContention() {
	p.ensureRegistered()
	p.lockContention.Inc()
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.ensureRegistered()
	p.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
