// Package tradelevel 计算交易级别的风险指标。
// 所有指标都由单笔成交的收益率序列导出（收益率 = closedPnl / (px×|sz|)），
// 完全不依赖账户净值，因此不受出入金的干扰，可跨账户横向对比。
package tradelevel

import (
	"math"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/util/timeutil"
)

const (
	// DefaultRiskFreeRate 默认年化无风险利率
	DefaultRiskFreeRate = 0.03
	// DefaultAvgHoldDays 没有回合数据时假定的平均持仓天数
	DefaultAvgHoldDays = 1.78
	// fallbackTradesPerYear 时间跨度无效时假定的年交易次数
	fallbackTradesPerYear = 252
)

// SharpeStats 交易级别 Sharpe 统计
type SharpeStats struct {
	// SharpeRatio 每笔交易的 Sharpe
	SharpeRatio float64 `json:"sharpe_ratio"`
	// AnnualizedSharpe 年化 Sharpe
	// 公式: 每笔 Sharpe × √年交易次数
	AnnualizedSharpe float64 `json:"annualized_sharpe"`
	// MeanReturnPerTrade 平均每笔收益率
	MeanReturnPerTrade float64 `json:"mean_return_per_trade"`
	// StdDev 收益率样本标准差
	StdDev float64 `json:"std_dev"`
	// TotalTrades 参与统计的交易数
	TotalTrades int `json:"total_trades"`
	// TradesPerYear 按时间跨度推算的年交易次数
	TradesPerYear float64 `json:"trades_per_year"`
}

// DrawdownStats 交易级别最大回撤统计
type DrawdownStats struct {
	// MaxDrawdownPct 最大回撤（百分比）
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	// PeakReturnPct 峰值累计收益率（百分比）
	PeakReturnPct float64 `json:"peak_return"`
	// TroughReturnPct 谷底累计收益率（百分比）
	TroughReturnPct float64 `json:"trough_return"`
	// PeakTradeIndex 峰值所在交易序号
	PeakTradeIndex int `json:"peak_trade_index"`
	// TroughTradeIndex 谷底所在交易序号
	TroughTradeIndex int `json:"trough_trade_index"`
	// TotalTrades 参与统计的交易数
	TotalTrades int `json:"total_trades"`
}

// TradeStats 交易级别明细统计（百分比字段均已 ×100）
type TradeStats struct {
	// TotalTrades 有效交易数
	TotalTrades int `json:"total_trades"`
	// WinningTrades 盈利交易数
	WinningTrades int `json:"winning_trades"`
	// LosingTrades 亏损交易数
	LosingTrades int `json:"losing_trades"`
	// WinRate 胜率（百分比）
	WinRate float64 `json:"win_rate"`
	// AvgReturnPct 平均每笔收益率
	AvgReturnPct float64 `json:"avg_return_per_trade"`
	// AvgWinningReturnPct 平均盈利收益率
	AvgWinningReturnPct float64 `json:"avg_winning_return"`
	// AvgLosingReturnPct 平均亏损收益率
	AvgLosingReturnPct float64 `json:"avg_losing_return"`
	// MaxReturnPct 最大单笔收益率
	MaxReturnPct float64 `json:"max_return"`
	// MinReturnPct 最小单笔收益率
	MinReturnPct float64 `json:"min_return"`
	// ReturnStdDevPct 收益率标准差
	ReturnStdDevPct float64 `json:"return_std_dev"`
	// AvgPositionValue 平均仓位名义价值
	AvgPositionValue float64 `json:"avg_position_size"`
}

// tradeReturns 提取有效的单笔收益率序列
// 只保留 closedPnl ≠ 0 且 px×|sz| > 0 的成交；fills 需已按时间升序，
// 回撤等路径相关指标才有意义。
// 返回: 收益率序列、首笔和末笔有效成交的时间戳（毫秒）
func tradeReturns(fills []model.Fill) (returns []float64, firstMs, lastMs int64) {
	for i := range fills {
		f := &fills[i]
		if f.ClosedPnL == 0 {
			continue
		}

		positionValue := f.Px * math.Abs(f.Size)
		if positionValue <= 0 {
			continue
		}

		returns = append(returns, f.ClosedPnL/positionValue)
		if firstMs == 0 {
			firstMs = f.TimeMs
		}
		lastMs = f.TimeMs
	}
	return returns, firstMs, lastMs
}

// meanStdDev 计算均值与样本标准差（n-1）
func meanStdDev(returns []float64) (mean, stdDev float64) {
	n := len(returns)
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean = sum / float64(n)

	if n < 2 {
		return mean, 0
	}

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}

// Sharpe 计算交易级别 Sharpe
// 无风险利率按平均持仓时长折算到单笔:
//   trade_rf = (1 + riskFreeRate)^(avgHoldDays/365) - 1
// avgHoldDays 通常取持仓时长统计的全期平均；≤ 0 时用默认值。
// 年化按 √(年交易次数) 放大，年交易次数由有效成交的时间跨度推算，
// 跨度无效时退回每年 252 次。有效收益率不足 2 笔或标准差为 0 时
// 返回降级结果而非报错。
// 参数 fills: 按时间升序的成交记录
// 参数 avgHoldDays: 平均持仓天数
// 参数 riskFreeRate: 年化无风险利率
func Sharpe(fills []model.Fill, avgHoldDays, riskFreeRate float64) SharpeStats {
	returns, firstMs, lastMs := tradeReturns(fills)
	if len(returns) < 2 {
		return SharpeStats{}
	}

	mean, stdDev := meanStdDev(returns)
	if stdDev == 0 {
		return SharpeStats{
			MeanReturnPerTrade: mean,
			TotalTrades:        len(returns),
		}
	}

	if avgHoldDays <= 0 {
		avgHoldDays = DefaultAvgHoldDays
	}
	tradeRf := math.Pow(1+riskFreeRate, avgHoldDays/365) - 1

	sharpe := (mean - tradeRf) / stdDev

	tradesPerYear := float64(fallbackTradesPerYear)
	if days := timeutil.SpanDays(firstMs, lastMs); days > 0 {
		tradesPerYear = float64(len(returns)) / days * 365
	}

	return SharpeStats{
		SharpeRatio:        sharpe,
		AnnualizedSharpe:   sharpe * math.Sqrt(tradesPerYear),
		MeanReturnPerTrade: mean,
		StdDev:             stdDev,
		TotalTrades:        len(returns),
		TradesPerYear:      tradesPerYear,
	}
}

// MaxDrawdown 计算交易级别最大回撤
// 以 1.0 为初始本金构建累计收益率曲线（逐笔 ×(1+r)），
// 回撤 = (峰值 - 当前值) / 峰值 × 100。
// 参数 fills: 按时间升序的成交记录
func MaxDrawdown(fills []model.Fill) DrawdownStats {
	returns, _, _ := tradeReturns(fills)
	if len(returns) < 2 {
		return DrawdownStats{}
	}

	cumulative := make([]float64, len(returns))
	value := 1.0
	for i, r := range returns {
		value *= 1 + r
		cumulative[i] = value
	}

	peak := cumulative[0]
	peakIdx := 0
	trough := peak
	troughIdx := 0
	var maxDrawdown float64

	for i, v := range cumulative {
		if v > peak {
			peak = v
			peakIdx = i
		}

		drawdown := (peak - v) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
			trough = v
			troughIdx = i
		}
	}

	return DrawdownStats{
		MaxDrawdownPct:   maxDrawdown,
		PeakReturnPct:    (peak - 1) * 100,
		TroughReturnPct:  (trough - 1) * 100,
		PeakTradeIndex:   peakIdx,
		TroughTradeIndex: troughIdx,
		TotalTrades:      len(returns),
	}
}

// Summary 计算交易级别明细统计
// 参数 fills: 按时间升序的成交记录
func Summary(fills []model.Fill) TradeStats {
	var (
		returns      []float64
		winReturns   []float64
		loseReturns  []float64
		positionSum  float64
		positionsCnt int
	)

	for i := range fills {
		f := &fills[i]
		if f.ClosedPnL == 0 {
			continue
		}

		positionValue := f.Px * math.Abs(f.Size)
		if positionValue <= 0 {
			continue
		}

		r := f.ClosedPnL / positionValue
		returns = append(returns, r)
		positionSum += positionValue
		positionsCnt++

		if f.ClosedPnL > 0 {
			winReturns = append(winReturns, r)
		} else {
			loseReturns = append(loseReturns, r)
		}
	}

	if len(returns) == 0 {
		return TradeStats{}
	}

	mean, stdDev := meanStdDev(returns)

	maxR, minR := returns[0], returns[0]
	for _, r := range returns[1:] {
		if r > maxR {
			maxR = r
		}
		if r < minR {
			minR = r
		}
	}

	stats := TradeStats{
		TotalTrades:      len(returns),
		WinningTrades:    len(winReturns),
		LosingTrades:     len(loseReturns),
		WinRate:          float64(len(winReturns)) / float64(len(returns)) * 100,
		AvgReturnPct:     mean * 100,
		MaxReturnPct:     maxR * 100,
		MinReturnPct:     minR * 100,
		ReturnStdDevPct:  stdDev * 100,
		AvgPositionValue: positionSum / float64(positionsCnt),
	}

	if len(winReturns) > 0 {
		winMean, _ := meanStdDev(winReturns)
		stats.AvgWinningReturnPct = winMean * 100
	}
	if len(loseReturns) > 0 {
		loseMean, _ := meanStdDev(loseReturns)
		stats.AvgLosingReturnPct = loseMean * 100
	}

	return stats
}
