// Package analyzer 编排单地址与批量地址的完整分析流程。
package analyzer

import (
	"time"

	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/match"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/stats/holdtime"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/stats/pnl"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/stats/tradelevel"
)

// Account 账户快照指标
// 来自 clearinghouseState 接口。HasState 为 false 表示快照获取失败，
// 分析降级为仅成交数据，数值字段全为 0。
type Account struct {
	// HasState 是否成功获取账户快照
	HasState bool `json:"has_state"`
	// Value 账户总价值（USDC）
	Value float64 `json:"account_value"`
	// MarginUsed 保证金占用合计
	MarginUsed float64 `json:"total_margin_used"`
	// Withdrawable 可提取余额
	Withdrawable float64 `json:"withdrawable"`
	// OpenPositions 当前持仓数
	OpenPositions int `json:"open_positions"`
	// UnrealizedPnL 当前持仓未实现盈亏合计
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Result 单个地址的完整分析结果
// 由 Compute 纯函数产出，报表与输出层只读取不修改。
type Result struct {
	// Address 钱包地址
	Address string `json:"address"`
	// AnalyzedAt 分析时间
	AnalyzedAt time.Time `json:"analyzed_at"`
	// FillCount 参与分析的成交笔数
	FillCount int `json:"fill_count"`

	// RoundTrips 配对出的全部开平回合（时间升序）
	RoundTrips []model.RoundTrip `json:"-"`
	// Diagnostics 配对过程的数据质量诊断
	Diagnostics match.Diagnostics `json:"diagnostics"`

	// HoldTime 四窗口平均持仓时长
	HoldTime holdtime.Stats `json:"hold_time_stats"`
	// WinRate 胜率与方向偏好
	WinRate pnl.WinRateStats `json:"win_rate"`
	// ProfitFactor 盈亏比（无亏损时为 +Inf）
	ProfitFactor float64 `json:"-"`
	// RealizedPnL 已实现盈亏合计
	RealizedPnL float64 `json:"total_realized_pnl"`

	// Sharpe 交易级别 Sharpe 统计
	Sharpe tradelevel.SharpeStats `json:"sharpe_on_trades"`
	// Drawdown 交易级别最大回撤
	Drawdown tradelevel.DrawdownStats `json:"max_drawdown_on_trades"`
	// Trades 交易级别明细统计
	Trades tradelevel.TradeStats `json:"trade_stats"`

	// Account 账户快照
	Account Account `json:"account"`
}

// TotalPnL 已实现与未实现盈亏合计
func (r *Result) TotalPnL() float64 {
	return r.RealizedPnL + r.Account.UnrealizedPnL
}

// TradingDays 首末有效成交之间的天数
func (r *Result) TradingDays() float64 {
	if r.Sharpe.TradesPerYear <= 0 {
		return 0
	}
	return float64(r.Sharpe.TotalTrades) / r.Sharpe.TradesPerYear * 365
}

// AddressOutcome 批量分析中单个地址的结果
// Err 不为空时 Result 为 nil，批量流程继续处理后续地址。
type AddressOutcome struct {
	// Address 钱包地址
	Address string `json:"address"`
	// Result 分析结果
	Result *Result `json:"result,omitempty"`
	// Err 分析失败原因
	Err error `json:"-"`
}
