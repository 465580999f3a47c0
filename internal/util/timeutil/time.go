// Package timeutil 提供时间相关的工具函数。
// 分析器全程使用毫秒时间戳（Hyperliquid 的 time 字段即毫秒），
// 统计窗口以本地日历日的零点为锚。
package timeutil

import (
	"time"
)

// NowMs 获取当前时间的毫秒时间戳
// 用于分页游标初值和缓存新鲜度判断
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// MsToTime 将毫秒时间戳转换为 time.Time
// 参数 ms: 毫秒时间戳
func MsToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// Midnight 获取 now 所在日历日的零点（保留 now 的时区）
// 参数 now: 参考时间
func Midnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// MidnightMs 获取 now 所在日历日零点的毫秒时间戳
// 参数 now: 参考时间
func MidnightMs(now time.Time) int64 {
	return Midnight(now).UnixMilli()
}

// DaysAgoMs 获取 now 零点往前推 days 个日历日的毫秒时间戳
// 使用 AddDate 做日历运算，跨夏令时边界时与“日”的直觉一致。
// 参数 now: 参考时间
// 参数 days: 往前推的天数
func DaysAgoMs(now time.Time, days int) int64 {
	return Midnight(now).AddDate(0, 0, -days).UnixMilli()
}

// SpanDays 计算两个毫秒时间戳之间的天数差
// 参数 startMs: 开始时间（毫秒）
// 参数 endMs: 结束时间（毫秒）
// 返回: 天数差（浮点数以保留精度），endMs 早于 startMs 时返回 0
func SpanDays(startMs, endMs int64) float64 {
	if endMs <= startMs {
		return 0
	}
	return float64(endMs-startMs) / 86_400_000.0
}

// SinceMs 计算从指定毫秒时间戳到现在的时间差
// 参数 startMs: 开始时间（毫秒）
// 返回: 时间差（毫秒）
func SinceMs(startMs int64) int64 {
	return NowMs() - startMs
}
