// Package model 定义分析器中使用的核心数据结构。
// 包含成交记录、方向事件、回合仓位等核心类型。
package model

// Fill 归一化后的单笔成交记录
// 来自 Hyperliquid userFillsByTime 接口，字符串数值字段已在解析层转换。
type Fill struct {
	// Symbol 交易标的，如 BTC、ETH
	Symbol string `json:"symbol"`
	// Direction 交易所原始方向标签
	// 永续: "Open Long" / "Close Short" / "Long > Short" 等
	// 现货: "Buy" / "Sell"
	Direction string `json:"direction"`
	// TimeMs 成交时间（毫秒时间戳）
	TimeMs int64 `json:"time_ms"`
	// Size 成交数量（绝对值）
	// 原始 sz 字段为字符串，解析失败时为 0，归一化阶段丢弃
	Size float64 `json:"size"`
	// Px 成交价格
	Px float64 `json:"px"`
	// ClosedPnL 本笔成交实现的已平仓盈亏（USDC）
	ClosedPnL float64 `json:"closed_pnl"`
	// Fee 手续费（USDC）
	Fee float64 `json:"fee"`
	// Hash 链上交易哈希，仅用于排查
	Hash string `json:"hash,omitempty"`
}

// Notional 计算成交名义价值
// 公式: Px × Size
func (f *Fill) Notional() float64 {
	return f.Px * f.Size
}

// IsWin 判断本笔成交是否实现盈利
func (f *Fill) IsWin() bool {
	return f.ClosedPnL > 0
}

// IsLoss 判断本笔成交是否实现亏损
func (f *Fill) IsLoss() bool {
	return f.ClosedPnL < 0
}
