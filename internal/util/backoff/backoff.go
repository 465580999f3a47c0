// Package backoff 实现指数退避重试机制。
// 用于两类场景：REST 请求失败后的重试等待，以及 WebSocket 断线重连，
// 避免频繁请求触发 Hyperliquid 的限流。
package backoff

import (
	"math/rand"
	"time"
)

// Backoff 指数退避计算器
// 每次调用 Next() 返回下一次重试的等待时间，按指数增长直到最大值。
// 非并发安全：每条重试链路应持有独立实例。
type Backoff struct {
	// base 基础等待时间
	base time.Duration
	// max 最大等待时间
	max time.Duration
	// jitter 抖动比例（0-1），例如 0.2 表示 ±20%
	jitter float64
	// attempt 当前重试次数
	attempt int
}

// New 创建新的退避计算器
// 参数 base: 基础等待时间
// 参数 max: 最大等待时间
// 参数 jitter: 抖动比例（0-1）
func New(base, max time.Duration, jitter float64) *Backoff {
	return &Backoff{
		base:   base,
		max:    max,
		jitter: jitter,
	}
}

// NewReconnect 创建 WebSocket 重连用的退避计算器
// 基础间隔 1s，最大间隔 30s，抖动 ±20%
func NewReconnect() *Backoff {
	return New(time.Second, 30*time.Second, 0.2)
}

// NewRequest 创建 REST 请求重试用的退避计算器
// 基础间隔 500ms，最大间隔 10s，抖动 ±20%
func NewRequest() *Backoff {
	return New(500*time.Millisecond, 10*time.Second, 0.2)
}

// Next 获取下次重试的等待时间
// 计算公式: base * 2^attempt，然后应用抖动，不超过 max
func (b *Backoff) Next() time.Duration {
	delay := b.max
	// attempt 超过 20 后位移结果必然超过 max，直接取 max 以免溢出
	if b.attempt <= 20 {
		delay = b.base * time.Duration(int64(1)<<b.attempt)
		if delay > b.max || delay <= 0 {
			delay = b.max
		}
	}

	// 抖动范围: [delay * (1 - jitter), delay * (1 + jitter)]
	if b.jitter > 0 {
		jitterFactor := 1.0 + (rand.Float64()*2-1)*b.jitter
		delay = time.Duration(float64(delay) * jitterFactor)
	}

	b.attempt++

	return delay
}

// Reset 重置退避计算器
// 在请求成功或连接建立后调用
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt 获取当前重试次数
func (b *Backoff) Attempt() int {
	return b.attempt
}
