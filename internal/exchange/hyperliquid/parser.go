// Package hyperliquid 实现 API 数据到内部模型的转换。
package hyperliquid

import (
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/core/model"
	"github.com/zhajingwen/calculater-sharpe-and-profit-factor/internal/util/fastparse"
)

// ParseFills 将 API 成交记录转换为内部模型
// 数量无法解析的记录被丢弃，其余数值字段解析失败按 0 处理
// 参数 raw: API 返回的成交记录（任意顺序）
// 返回: 转换后的成交列表，保持输入顺序
func ParseFills(raw []Fill) []model.Fill {
	fills := make([]model.Fill, 0, len(raw))
	for i := range raw {
		if f, ok := parseFill(&raw[i]); ok {
			fills = append(fills, f)
		}
	}
	return fills
}

// parseFill 转换单条成交记录
// 返回: 转换结果；数量或价格无法解析时 ok 为 false
func parseFill(raw *Fill) (model.Fill, bool) {
	if raw.Coin == "" {
		return model.Fill{}, false
	}

	sz, err := fastparse.ParseFloat(raw.Sz)
	if err != nil {
		return model.Fill{}, false
	}
	px, err := fastparse.ParseFloat(raw.Px)
	if err != nil {
		return model.Fill{}, false
	}

	return model.Fill{
		Symbol:    raw.Coin,
		Direction: raw.Dir,
		TimeMs:    raw.Time,
		Size:      sz,
		Px:        px,
		ClosedPnL: fastparse.MustParseFloat(raw.ClosedPnl),
		Fee:       fastparse.MustParseFloat(raw.Fee),
		Hash:      raw.Hash,
	}, true
}

// AccountValue 账户总价值（USD）
func (s *ClearinghouseState) AccountValue() float64 {
	return fastparse.MustParseFloat(s.MarginSummary.AccountValue)
}

// TotalMarginUsed 已用保证金（USD）
func (s *ClearinghouseState) TotalMarginUsed() float64 {
	return fastparse.MustParseFloat(s.MarginSummary.TotalMarginUsed)
}

// WithdrawableValue 可提取金额（USD）
func (s *ClearinghouseState) WithdrawableValue() float64 {
	return fastparse.MustParseFloat(s.Withdrawable)
}

// UnrealizedPnLs 各持仓的未实现盈亏列表
// 用于盈亏比计算中的未实现项
func (s *ClearinghouseState) UnrealizedPnLs() []float64 {
	pnls := make([]float64, 0, len(s.AssetPositions))
	for _, ap := range s.AssetPositions {
		if ap.Position.Coin == "" {
			continue
		}
		pnls = append(pnls, fastparse.MustParseFloat(ap.Position.UnrealizedPnl))
	}
	return pnls
}

// OpenPositionCount 当前持仓数量
func (s *ClearinghouseState) OpenPositionCount() int {
	count := 0
	for _, ap := range s.AssetPositions {
		if ap.Position.Coin != "" {
			count++
		}
	}
	return count
}
