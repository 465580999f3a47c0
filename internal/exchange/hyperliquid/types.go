// Package hyperliquid 定义 Hyperliquid info API 的消息类型。
// 数值字段按 API 原样保留为字符串，解析由 parser.go 统一完成。
package hyperliquid

import "encoding/json"

// FillsByTimeRequest userFillsByTime 请求
// 按时间窗口倒序翻页获取成交记录
type FillsByTimeRequest struct {
	// Type 请求类型: userFillsByTime
	Type string `json:"type"`
	// User 钱包地址
	User string `json:"user"`
	// StartTime 窗口起点（毫秒），0 表示从最早开始
	StartTime int64 `json:"startTime"`
	// EndTime 窗口终点（毫秒），缺省表示当前时间
	EndTime *int64 `json:"endTime,omitempty"`
}

// StateRequest clearinghouseState 请求
type StateRequest struct {
	// Type 请求类型: clearinghouseState
	Type string `json:"type"`
	// User 钱包地址
	User string `json:"user"`
}

// Fill 单条成交记录
// 字段映射:
// - coin: 币种，如 BTC
// - px/sz: 成交价格/数量（字符串）
// - side: B 买入，A 卖出
// - dir: 方向描述，如 Open Long, Close Short, Long > Short
// - closedPnl: 本条成交实现的已平仓盈亏（字符串）
type Fill struct {
	// Coin 币种
	Coin string `json:"coin"`
	// Px 成交价格
	Px string `json:"px"`
	// Sz 成交数量
	Sz string `json:"sz"`
	// Side 买卖方向: B / A
	Side string `json:"side"`
	// Time 成交时间戳（毫秒）
	Time int64 `json:"time"`
	// StartPosition 成交前持仓数量
	StartPosition string `json:"startPosition"`
	// Dir 方向描述
	Dir string `json:"dir"`
	// ClosedPnl 已平仓盈亏
	ClosedPnl string `json:"closedPnl"`
	// Hash 链上交易哈希
	Hash string `json:"hash"`
	// Oid 订单 ID
	Oid int64 `json:"oid"`
	// Crossed 是否为 taker 成交
	Crossed bool `json:"crossed"`
	// Fee 手续费
	Fee string `json:"fee"`
	// Tid 成交 ID
	Tid int64 `json:"tid"`
	// FeeToken 手续费币种
	FeeToken string `json:"feeToken"`
}

// MarginSummary 保证金摘要
type MarginSummary struct {
	// AccountValue 账户总价值（USD）
	AccountValue string `json:"accountValue"`
	// TotalNtlPos 持仓名义价值合计
	TotalNtlPos string `json:"totalNtlPos"`
	// TotalRawUsd 原始 USD 余额
	TotalRawUsd string `json:"totalRawUsd"`
	// TotalMarginUsed 已用保证金
	TotalMarginUsed string `json:"totalMarginUsed"`
}

// Leverage 杠杆信息
type Leverage struct {
	// Type 杠杆类型: cross, isolated
	Type string `json:"type"`
	// Value 杠杆倍数
	Value float64 `json:"value"`
}

// CumFunding 累计资金费率
type CumFunding struct {
	// AllTime 开户以来累计
	AllTime string `json:"allTime"`
	// SinceOpen 本次开仓以来累计
	SinceOpen string `json:"sinceOpen"`
	// SinceChange 上次调仓以来累计
	SinceChange string `json:"sinceChange"`
}

// Position 单个合约持仓
type Position struct {
	// Coin 币种
	Coin string `json:"coin"`
	// Szi 有符号持仓数量，正为多头，负为空头
	Szi string `json:"szi"`
	// Leverage 杠杆信息
	Leverage Leverage `json:"leverage"`
	// EntryPx 开仓均价
	EntryPx string `json:"entryPx"`
	// PositionValue 持仓名义价值
	PositionValue string `json:"positionValue"`
	// UnrealizedPnl 未实现盈亏
	UnrealizedPnl string `json:"unrealizedPnl"`
	// ReturnOnEquity 持仓收益率
	ReturnOnEquity string `json:"returnOnEquity"`
	// LiquidationPx 强平价格，可能为空
	LiquidationPx string `json:"liquidationPx"`
	// MarginUsed 占用保证金
	MarginUsed string `json:"marginUsed"`
	// MaxLeverage 最大可用杠杆
	MaxLeverage float64 `json:"maxLeverage"`
	// CumFunding 累计资金费率
	CumFunding CumFunding `json:"cumFunding"`
}

// AssetPosition 资产持仓条目
type AssetPosition struct {
	// Type 持仓类型: oneWay
	Type string `json:"type"`
	// Position 持仓详情
	Position Position `json:"position"`
}

// ClearinghouseState 账户清算所状态
type ClearinghouseState struct {
	// MarginSummary 全账户保证金摘要
	MarginSummary MarginSummary `json:"marginSummary"`
	// CrossMarginSummary 全仓保证金摘要
	CrossMarginSummary MarginSummary `json:"crossMarginSummary"`
	// CrossMaintenanceMarginUsed 全仓维持保证金
	CrossMaintenanceMarginUsed string `json:"crossMaintenanceMarginUsed"`
	// Withdrawable 可提取金额
	Withdrawable string `json:"withdrawable"`
	// AssetPositions 持仓列表
	AssetPositions []AssetPosition `json:"assetPositions"`
	// Time 状态时间戳（毫秒）
	Time int64 `json:"time"`
}

// WsCommand WebSocket 指令
// 订阅: {"method":"subscribe","subscription":{...}}
// 心跳: {"method":"ping"}
type WsCommand struct {
	// Method 指令类型: subscribe, unsubscribe, ping
	Method string `json:"method"`
	// Subscription 订阅参数，ping 时缺省
	Subscription *WsSubscription `json:"subscription,omitempty"`
}

// WsSubscription WebSocket 订阅参数
type WsSubscription struct {
	// Type 订阅频道: userFills
	Type string `json:"type"`
	// User 钱包地址
	User string `json:"user"`
}

// WsMessage WebSocket 推送消息外层
type WsMessage struct {
	// Channel 频道: userFills, subscriptionResponse, pong
	Channel string `json:"channel"`
	// Data 频道数据，按频道类型二次解析
	Data json.RawMessage `json:"data"`
}

// WsUserFills userFills 频道数据
type WsUserFills struct {
	// IsSnapshot 是否为订阅时的历史快照
	IsSnapshot bool `json:"isSnapshot"`
	// User 钱包地址
	User string `json:"user"`
	// Fills 成交记录列表
	Fills []Fill `json:"fills"`
}
