package service

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"shift-roster/internal/metrics"
	"shift-roster/internal/shift"
	pkgerrors "shift-roster/pkg/errors"
)

// lockPollInterval 分布式锁轮询间隔
const lockPollInterval = 50 * time.Millisecond

// DistributedLocker 跨实例互斥锁（Redis 实现）
type DistributedLocker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, name, token string) error
}

// monthLocker 月份级写锁
//
// 同一月份的整月生成与单日修改串行执行。进程内使用按月份的信号量，
// 配置 Redis 时再叠加分布式锁；Redis 不可用时降级为仅进程内互斥。
type monthLocker struct {
	local   *xsync.MapOf[string, chan struct{}]
	remote  DistributedLocker
	ttl     time.Duration
	wait    time.Duration
	metrics metrics.Recorder
	logger  *zap.Logger
}

func newMonthLocker(remote DistributedLocker, ttl, wait time.Duration, rec metrics.Recorder, logger *zap.Logger) *monthLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &monthLocker{
		local:   xsync.NewMapOf[string, chan struct{}](),
		remote:  remote,
		ttl:     ttl,
		wait:    wait,
		metrics: rec,
		logger:  logger,
	}
}

// Lock 获取 year-month 写锁，返回释放函数
// 等待上限为 wait 与 ctx 截止时间中较早者，超时返回 ErrLockTimeout
func (l *monthLocker) Lock(ctx context.Context, year, month int) (func(), error) {
	key := shift.MonthPrefix(year, month)

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	sem, _ := l.local.LoadOrStore(key, make(chan struct{}, 1))
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		l.metrics.IncLockContention()
		return nil, pkgerrors.ErrLockTimeout
	}
	releaseLocal := func() { <-sem }

	if l.remote == nil {
		return releaseLocal, nil
	}

	token, err := l.acquireRemote(ctx, key)
	if err != nil {
		releaseLocal()
		return nil, err
	}
	if token == "" {
		return releaseLocal, nil
	}

	return func() {
		// 请求 ctx 可能已取消，释放使用独立的短超时
		unlockCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := l.remote.Unlock(unlockCtx, key, token); err != nil {
			l.logger.Warn("释放月份分布式锁失败", zap.String("month", key), zap.Error(err))
		}
		releaseLocal()
	}, nil
}

// acquireRemote 轮询获取分布式锁；Redis 出错时返回空 token 并降级
func (l *monthLocker) acquireRemote(ctx context.Context, key string) (string, error) {
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		token, ok, err := l.remote.TryLock(ctx, key, l.ttl)
		if err != nil {
			if ctx.Err() != nil {
				l.metrics.IncLockContention()
				return "", pkgerrors.ErrLockTimeout
			}
			l.logger.Warn("获取月份分布式锁失败，降级为进程内锁", zap.String("month", key), zap.Error(err))
			return "", nil
		}
		if ok {
			return token, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			l.metrics.IncLockContention()
			return "", pkgerrors.ErrLockTimeout
		}
	}
}
