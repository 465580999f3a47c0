package model

// MsPerDay 一天的毫秒数
const MsPerDay = 86_400_000

// RoundTrip 一次完整的开平回合
// 由撮合器按 FIFO 规则将平仓量与最早的开仓批次配对产生。
// 一笔平仓可能拆出多个回合，一个开仓批次也可能被多笔平仓分次消耗。
type RoundTrip struct {
	// Symbol 交易标的
	Symbol string `json:"symbol"`
	// Side 持仓方向
	Side Side `json:"side"`
	// OpenMs 开仓时间（毫秒时间戳）
	OpenMs int64 `json:"open_ms"`
	// CloseMs 平仓时间（毫秒时间戳）
	CloseMs int64 `json:"close_ms"`
	// Size 本次配对的数量
	Size float64 `json:"size"`
}

// HoldMs 持仓时长（毫秒）
func (r *RoundTrip) HoldMs() int64 {
	return r.CloseMs - r.OpenMs
}

// HoldDays 持仓时长（天）
// 公式: (CloseMs - OpenMs) / 86_400_000
func (r *RoundTrip) HoldDays() float64 {
	return float64(r.CloseMs-r.OpenMs) / float64(MsPerDay)
}

// IsLong 判断是否为多头回合
func (r *RoundTrip) IsLong() bool {
	return r.Side == SideLong
}

// IsShort 判断是否为空头回合
func (r *RoundTrip) IsShort() bool {
	return r.Side == SideShort
}
