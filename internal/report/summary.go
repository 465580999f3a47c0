// Package report 渲染分析结果。
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/analyzer"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/exchange/hyperliquid"
)

// Summary 生成单地址的终端摘要文本
// 参数 r: 分析结果
// 参数 currency: 货币代码
func Summary(r *analyzer.Result, currency string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n📊 交易分析摘要  %s\n", hyperliquid.ShortAddress(r.Address))
	fmt.Fprintf(&b, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Fprintf(&b, "✅ 核心指标\n")
	fmt.Fprintf(&b, "  • Sharpe Ratio: %.2f\n", r.Sharpe.AnnualizedSharpe)
	fmt.Fprintf(&b, "  • Profit Factor: %s\n", ProfitFactorText(r.ProfitFactor))
	fmt.Fprintf(&b, "  • Win Rate: %s\n", Percent(r.WinRate.WinRate, 2))
	fmt.Fprintf(&b, "  • 累计盈亏: %s\n", SignedMoney(r.TotalPnL(), currency))
	fmt.Fprintf(&b, "  • 平均持仓: %s\n\n", HoldDaysText(r.HoldTime.AllTimeAverage))
	fmt.Fprintf(&b, "🎯 评级\n")
	fmt.Fprintf(&b, "  • 风险调整收益: %s\n", sharpeRating(r.Sharpe.AnnualizedSharpe))
	fmt.Fprintf(&b, "  • 盈利能力: %s\n", profitStatus(r.ProfitFactor))

	return b.String()
}

// profitStatus 盈利能力的简短评级
func profitStatus(pf float64) string {
	switch {
	case math.IsInf(pf, 1) || pf >= 1000:
		return "✅ 极优秀（无亏损）"
	case pf > 1:
		return "✅ 盈利"
	default:
		return "❌ 亏损"
	}
}
