// Package fastparse 提供字符串数值解析的工具函数。
// Hyperliquid 接口把 sz、px、closedPnl、fee 等数值字段编码为字符串，
// 这里统一用 strconv 转换，避免在逐笔解析的路径上使用 fmt。
package fastparse

import (
	"strconv"
)

// ParseFloat 解析浮点数字符串
// 参数 s: 待解析的字符串，如 "1234.5"
// 返回: 解析后的浮点数和可能的错误
func ParseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// MustParseFloat 解析浮点数，失败时返回 0
// 用于容忍脏数据的字段：返回 0 的成交会在归一化阶段被丢弃，
// 而非让单条脏记录中断整个地址的分析。
// 参数 s: 待解析的字符串
// 返回: 解析后的浮点数，失败返回 0
func MustParseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatFloat 格式化浮点数为字符串
// 参数 f: 待格式化的浮点数
// 参数 prec: 小数位数，-1 表示最短表示
// 返回: 格式化后的字符串
func FormatFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}
