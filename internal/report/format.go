// Package report 渲染分析结果。
// 同一份 Result 出三种形态：终端摘要、单地址 Markdown 报告、
// 批量 HTML 报告。数值格式化集中在本文件，三种形态保持一致。
package report

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// HoldDaysText 持仓时长的人读文本
// 自动选择单位: ≥1 天用天，≥1 小时用小时，其余用分钟
// 参数 days: 持仓天数
func HoldDaysText(days float64) string {
	switch {
	case days == 0:
		return "0 天"
	case days >= 1:
		return fmt.Sprintf("%.2f 天", days)
	case days >= 1.0/24:
		return fmt.Sprintf("%.2f 小时", days*24)
	default:
		return fmt.Sprintf("%.2f 分钟", days*24*60)
	}
}

// ProfitFactorText 盈亏比的人读文本
// +Inf 与 ≥1000 都渲染为 "1000+"（无亏损交易）
// 参数 pf: 盈亏比
func ProfitFactorText(pf float64) string {
	if math.IsInf(pf, 1) || pf >= 1000 {
		return "1000+"
	}
	return fmt.Sprintf("%.4f", pf)
}

// Money 货币文本，带千分位与货币符号
// 参数 amount: 金额（主单位）
// 参数 code: ISO 货币代码，如 USD
func Money(amount float64, code string) string {
	cur := money.New(0, code).Currency()
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// SignedMoney 带正号的货币文本，正数前加 "+"
// 参数 amount: 金额（主单位）
// 参数 code: ISO 货币代码
func SignedMoney(amount float64, code string) string {
	s := Money(amount, code)
	if amount > 0 {
		return "+" + s
	}
	return s
}

// Percent 百分比文本
// 参数 v: 已乘 100 的百分比数值
// 参数 decimals: 小数位数
func Percent(v float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, v)
}

// clampProfitFactor 把盈亏比收敛到可序列化区间
// JSON 不接受 +Inf，表格数据里用 1000 代表无亏损
func clampProfitFactor(pf float64) float64 {
	if math.IsInf(pf, 1) || pf > 1000 {
		return 1000
	}
	return pf
}
