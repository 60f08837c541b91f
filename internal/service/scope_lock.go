package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"academic-scheduler/config"
	"academic-scheduler/internal/model"
	"academic-scheduler/pkg/redis"
)

// ScopeLocker 按 (学年, 周期, 学期, 星期) 串行化排课写入
//
// 锁覆盖冲突检测与持久化两个步骤。
type ScopeLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// scopeKey 候选排课所在的互斥范围
func scopeKey(s *model.Schedule) string {
	return fmt.Sprintf("schedule:%d:%d:%d:%d", s.Year, s.Cycle, s.Semester, s.Day)
}

// NewScopeLocker 按配置创建互斥实现
// redis 模式下 rdb 不可用时返回错误
func NewScopeLocker(cfg *config.SchedulingConfig, rdb *redis.Client, logger *zap.Logger) (ScopeLocker, error) {
	switch cfg.ScopeLock {
	case config.ScopeLockLocal:
		return NewLocalScopeLocker(), nil
	case config.ScopeLockRedis:
		if rdb == nil {
			return nil, fmt.Errorf("scheduling.scope_lock=redis 需要可用的 Redis 连接")
		}
		return NewRedisScopeLocker(rdb, cfg.LockTTL), nil
	default:
		logger.Warn("排课写入未启用互斥，并发请求可能同时通过冲突检测")
		return noopScopeLocker{}, nil
	}
}

// ── 不加锁 ──

type noopScopeLocker struct{}

func (noopScopeLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

// ── 进程内互斥 ──

// LocalScopeLocker 进程内按 key 互斥，等待期间响应 ctx 取消
type LocalScopeLocker struct {
	mu    sync.Mutex
	slots map[string]*scopeSlot
}

type scopeSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocalScopeLocker 创建进程内互斥实现
func NewLocalScopeLocker() *LocalScopeLocker {
	return &LocalScopeLocker{slots: make(map[string]*scopeSlot)}
}

func (l *LocalScopeLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &scopeSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(key, slot)
		})
	}, nil
}

// release 引用计数归零时回收 slot
func (l *LocalScopeLocker) release(key string, slot *scopeSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

// ── Redis 分布式互斥 ──

// RedisScopeLocker 多实例部署下的互斥实现
type RedisScopeLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisScopeLocker 创建基于 Redis 的互斥实现
func NewRedisScopeLocker(rdb *redis.Client, ttl time.Duration) *RedisScopeLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisScopeLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisScopeLocker) Lock(ctx context.Context, key string) (func(), error) {
	// 等待时间不超过锁自身的有效期
	waitCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()
	return l.rdb.AcquireLock(waitCtx, key, l.ttl)
}
