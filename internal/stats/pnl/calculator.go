// Package pnl 计算盈亏类统计指标。
// 盈亏求和使用 decimal 精确累加：单个地址的成交可达上万笔，
// float64 逐笔累加的舍入误差会污染盈亏比的分子分母。
package pnl

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
)

// WinRateStats 胜率与方向偏好统计
type WinRateStats struct {
	// WinRate 胜率（百分比 0-100）
	// 只统计有盈亏的成交，零盈亏成交不参与
	WinRate float64 `json:"win_rate"`
	// Bias 方向偏好（0-100）
	// 50 为中性，大于 50 偏多，小于 50 偏空
	// 公式: ((多单数 - 空单数) / 总笔数 × 100 + 100) / 2
	Bias float64 `json:"bias"`
	// TotalTrades 成交总笔数（含零盈亏成交）
	TotalTrades int `json:"total_trades"`
	// WinningTrades 盈利笔数
	WinningTrades int `json:"winning_trades"`
	// LosingTrades 亏损笔数
	LosingTrades int `json:"losing_trades"`
	// LongTrades 多方向笔数
	LongTrades int `json:"long_trades"`
	// ShortTrades 空方向笔数
	ShortTrades int `json:"short_trades"`
}

// ProfitFactor 计算盈亏比
// 公式: 总盈利 / 总亏损。成交的已实现盈亏与当前持仓的未实现盈亏
// 都参与累加。亏损为零且有盈利时返回 +Inf（报表层渲染为 "1000+"），
// 没有任何数据或没有盈利时返回 0。
// 参数 fills: 成交记录
// 参数 unrealized: 当前各持仓的未实现盈亏
func ProfitFactor(fills []model.Fill, unrealized []float64) float64 {
	if len(fills) == 0 && len(unrealized) == 0 {
		return 0
	}

	gains := decimal.Zero
	losses := decimal.Zero

	add := func(v decimal.Decimal) {
		switch {
		case v.IsPositive():
			gains = gains.Add(v)
		case v.IsNegative():
			losses = losses.Add(v.Abs())
		}
	}

	for i := range fills {
		add(decimal.NewFromFloat(fills[i].ClosedPnL))
	}
	for _, u := range unrealized {
		add(decimal.NewFromFloat(u))
	}

	if losses.IsZero() {
		if gains.IsPositive() {
			return math.Inf(1)
		}
		return 0
	}

	pf, _ := gains.Div(losses).Float64()
	return pf
}

// TotalClosedPnL 计算已实现盈亏合计
// 参数 fills: 成交记录
func TotalClosedPnL(fills []model.Fill) float64 {
	total := decimal.Zero
	for i := range fills {
		total = total.Add(decimal.NewFromFloat(fills[i].ClosedPnL))
	}
	v, _ := total.Float64()
	return v
}

// WinRate 统计胜率与方向偏好
// 方向按交易所的原始标签精确归类：现货 Buy/Sell 不计入任何方向，
// 只有永续的开平仓与翻转标签参与偏好统计。
// 参数 fills: 成交记录
func WinRate(fills []model.Fill) WinRateStats {
	if len(fills) == 0 {
		return WinRateStats{Bias: 50}
	}

	var stats WinRateStats
	stats.TotalTrades = len(fills)

	for i := range fills {
		f := &fills[i]

		switch f.Direction {
		case "Open Long", "Close Long", "Short > Long":
			stats.LongTrades++
		case "Open Short", "Close Short", "Long > Short":
			stats.ShortTrades++
		}

		if f.ClosedPnL > 0 {
			stats.WinningTrades++
		} else if f.ClosedPnL < 0 {
			stats.LosingTrades++
		}
	}

	pnlTrades := stats.WinningTrades + stats.LosingTrades
	if pnlTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(pnlTrades) * 100
	}

	stats.Bias = (float64(stats.LongTrades-stats.ShortTrades)/float64(stats.TotalTrades)*100 + 100) / 2

	return stats
}
