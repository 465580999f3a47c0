// Package report 渲染分析结果。
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/analyzer"
)

// Markdown 渲染单地址的 Markdown 分析报告
// 章节: 核心指标 / 交易统计 / 持仓时间统计 / 账户信息 / 数据摘要
// 参数 r: 分析结果
// 参数 currency: 货币代码
func Markdown(r *analyzer.Result, currency string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 交易分析报告\n\n")
	fmt.Fprintf(&b, "**分析时间**: %s\n", r.AnalyzedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**用户地址**: `%s`\n", r.Address)
	fmt.Fprintf(&b, "**数据来源**: Hyperliquid API\n\n---\n\n")

	writeCoreSection(&b, r)
	writeTradeSection(&b, r)
	writeHoldTimeSection(&b, r)
	writeAccountSection(&b, r, currency)
	writeSummarySection(&b, r)

	return b.String()
}

// WriteMarkdown 渲染并写入单地址报告文件
// 文件名为小写地址加 .md，重复分析同一地址时覆盖旧报告
// 返回: 报告文件路径
func WriteMarkdown(dir string, r *analyzer.Result, currency string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	path := filepath.Join(dir, strings.ToLower(r.Address)+".md")
	if err := os.WriteFile(path, []byte(Markdown(r, currency)), 0o644); err != nil {
		return "", fmt.Errorf("写入 Markdown 报告失败: %w", err)
	}
	return path, nil
}

// writeCoreSection 核心指标章节
// 指标全部基于单笔交易收益率，不依赖本金数据
func writeCoreSection(b *strings.Builder, r *analyzer.Result) {
	fmt.Fprintf(b, "## 📈 核心指标（基于单笔交易收益率）\n\n")
	fmt.Fprintf(b, "### Sharpe Ratio（风险调整收益）\n\n")
	fmt.Fprintf(b, "| 指标 | 数值 | 说明 |\n|------|------|------|\n")
	fmt.Fprintf(b, "| 年化 Sharpe Ratio | **%.2f** | %s |\n",
		r.Sharpe.AnnualizedSharpe, sharpeRating(r.Sharpe.AnnualizedSharpe))
	fmt.Fprintf(b, "| 每笔交易 Sharpe | %.4f | 单笔交易风险调整收益 |\n", r.Sharpe.SharpeRatio)
	fmt.Fprintf(b, "| 平均每笔收益率 | %s | 相对持仓价值 |\n",
		Percent(r.Sharpe.MeanReturnPerTrade*100, 2))
	fmt.Fprintf(b, "| 收益率标准差 | %s | 波动性指标 |\n\n",
		Percent(r.Sharpe.StdDev*100, 2))

	fmt.Fprintf(b, "**计算方法**:\n```\n单笔收益率 = closedPnL / (|sz| × px)\n")
	fmt.Fprintf(b, "持仓价值 = |sz| × px（该笔交易的名义价值）\n```\n\n")
}

// writeTradeSection 交易统计章节
func writeTradeSection(b *strings.Builder, r *analyzer.Result) {
	fmt.Fprintf(b, "### 交易统计\n\n")
	fmt.Fprintf(b, "| 指标 | 数值 |\n|------|------|\n")
	fmt.Fprintf(b, "| Profit Factor | %s |\n", ProfitFactorText(r.ProfitFactor))
	fmt.Fprintf(b, "| Win Rate | %s |\n", Percent(r.WinRate.WinRate, 2))
	fmt.Fprintf(b, "| Direction Bias | %s |\n", Percent(r.WinRate.Bias, 2))
	fmt.Fprintf(b, "| Total Trades | %d |\n", r.WinRate.TotalTrades)
	fmt.Fprintf(b, "| Max Drawdown | %s |\n", Percent(r.Drawdown.MaxDrawdownPct, 2))
	fmt.Fprintf(b, "| Avg Hold Time | %s |\n\n", HoldDaysText(r.HoldTime.AllTimeAverage))

	fmt.Fprintf(b, "**评级**: %s\n\n---\n\n", profitRating(r.ProfitFactor))
}

// writeHoldTimeSection 持仓时间统计章节
func writeHoldTimeSection(b *strings.Builder, r *analyzer.Result) {
	fmt.Fprintf(b, "## ⏱️ 持仓时间统计\n\n")
	fmt.Fprintf(b, "| 时间段 | 平均持仓时间 |\n|--------|--------------|\n")
	fmt.Fprintf(b, "| 今日 | %s |\n", HoldDaysText(r.HoldTime.TodayAverage))
	fmt.Fprintf(b, "| 近7天 | %s |\n", HoldDaysText(r.HoldTime.Last7DaysAverage))
	fmt.Fprintf(b, "| 近30天 | %s |\n", HoldDaysText(r.HoldTime.Last30DaysAverage))
	fmt.Fprintf(b, "| 历史平均 | %s |\n\n---\n\n", HoldDaysText(r.HoldTime.AllTimeAverage))
}

// writeAccountSection 账户信息章节
// 账户快照获取失败时降级为一行提示
func writeAccountSection(b *strings.Builder, r *analyzer.Result, currency string) {
	fmt.Fprintf(b, "## 💰 账户信息\n\n")

	if !r.Account.HasState {
		fmt.Fprintf(b, "> ⚠️ 账户快照获取失败，以下盈亏仅含已实现部分\n\n")
		fmt.Fprintf(b, "| 项目 | 数值 |\n|------|------|\n")
		fmt.Fprintf(b, "| **累计总盈亏** | **%s** |\n\n---\n\n",
			SignedMoney(r.RealizedPnL, currency))
		return
	}

	fmt.Fprintf(b, "| 项目 | 数值 |\n|------|------|\n")
	fmt.Fprintf(b, "| **总账户价值** | **%s** |\n", Money(r.Account.Value, currency))
	fmt.Fprintf(b, "| 保证金使用 | %s |\n", Money(r.Account.MarginUsed, currency))
	fmt.Fprintf(b, "| 可提取余额 | %s |\n", Money(r.Account.Withdrawable, currency))
	fmt.Fprintf(b, "| 当前持仓 | %d |\n", r.Account.OpenPositions)
	fmt.Fprintf(b, "| **累计总盈亏** | **%s** |\n", SignedMoney(r.TotalPnL(), currency))
	fmt.Fprintf(b, "| ├─ 已实现盈亏 | %s |\n", SignedMoney(r.RealizedPnL, currency))
	fmt.Fprintf(b, "| └─ 未实现盈亏 | %s |\n\n---\n\n",
		SignedMoney(r.Account.UnrealizedPnL, currency))
}

// writeSummarySection 数据摘要章节
// 配对诊断有异常时附带提示
func writeSummarySection(b *strings.Builder, r *analyzer.Result) {
	fmt.Fprintf(b, "## 📊 数据摘要\n\n")
	fmt.Fprintf(b, "| 项目 | 数量 |\n|------|------|\n")
	fmt.Fprintf(b, "| 成交记录 | %d 条 |\n", r.FillCount)
	fmt.Fprintf(b, "| 配对回合 | %d 个 |\n", len(r.RoundTrips))
	fmt.Fprintf(b, "| 未平仓批次 | %d 个 |\n", r.Diagnostics.OpenLots)
	fmt.Fprintf(b, "| 交易天数 | %.1f 天 |\n\n", r.TradingDays())

	if r.Diagnostics.HasAnomalies() {
		fmt.Fprintf(b, "> ⚠️ **注意**: 存在数据质量异常\n")
		if r.Diagnostics.UnclassifiedEvents > 0 {
			fmt.Fprintf(b, "> - 无法识别方向的成交: %d 笔\n", r.Diagnostics.UnclassifiedEvents)
		}
		if r.Diagnostics.UnmatchedCloseEvents > 0 {
			fmt.Fprintf(b, "> - 超量平仓成交: %d 笔（可能存在观测窗口之前的持仓）\n",
				r.Diagnostics.UnmatchedCloseEvents)
		}
		fmt.Fprintf(b, "\n")
	}

	fmt.Fprintf(b, "---\n\n*本报告由 Hyperliquid Analyzer 自动生成 - %s*\n",
		r.AnalyzedAt.Format("2006-01-02 15:04:05"))
}

// sharpeRating 年化 Sharpe 的评级文本
func sharpeRating(annualized float64) string {
	switch {
	case annualized > 1:
		return "✅ 优秀"
	case annualized > 0:
		return "⚠️ 偏低"
	default:
		return "❌ 负收益"
	}
}

// profitRating 盈亏比的评级文本
func profitRating(pf float64) string {
	switch {
	case math.IsInf(pf, 1) || pf >= 1000:
		return "✅ 极优秀盈利策略（无亏损交易）"
	case pf > 1:
		return "✅ 盈利策略"
	default:
		return "❌ 亏损策略"
	}
}
